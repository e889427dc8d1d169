package entity

// Параметры подсчета очков по умолчанию
const (
	DefaultMaxTimeSec = 30
	DefaultBasePoints = 100
)

// CalculateScore рассчитывает очки за ответ по оставшемуся времени.
// Быстрые ответы получают больше очков: линейная шкала от 50% до 100%
// базовых очков. При timeRemaining <= 0 очки не начисляются.
func CalculateScore(timeRemaining float64, maxTime, basePoints int) int {
	if timeRemaining <= 0 {
		return 0
	}

	// Не даем больше basePoints даже при аномально большом остатке времени
	timeRatio := timeRemaining / float64(maxTime)
	if timeRatio > 1.0 {
		timeRatio = 1.0
	}

	// Минимум 50% очков за правильный ответ
	minScore := float64(basePoints) * 0.5
	scoreRange := float64(basePoints) - minScore

	return int(minScore + scoreRange*timeRatio)
}
