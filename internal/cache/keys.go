package cache

import "strings"

const (
	GlobalKeyPrefix = "guardians"

	ServiceQuiz   = "quiz"
	ObjDefinition = "definition"
	ObjStatistics = "stats"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// QuizDefinitionKey is the key of a cached quiz, answer keys included.
func QuizDefinitionKey(quizID string) string {
	return GenerateCacheKey(ServiceQuiz, ObjDefinition, quizID)
}

// QuizStatisticsKey is the key of a cached statistics report.
func QuizStatisticsKey(quizID string) string {
	return GenerateCacheKey(ServiceQuiz, ObjStatistics, quizID)
}
