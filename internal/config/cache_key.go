package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// FormsKey holds the whole form collection as one JSON document.
func (r *CacheKeyStruct) FormsKey() string {
	return "forms:all"
}

// BuilderSessionKey returns the key of a builder session snapshot
func (r *CacheKeyStruct) BuilderSessionKey(sessionID string) string {
	return fmt.Sprintf("builder:%s:session", sessionID)
}

// BuilderEventsChannel returns the Redis PubSub channel of a builder session
func (r *CacheKeyStruct) BuilderEventsChannel(sessionID string) string {
	return fmt.Sprintf("builder:%s:events", sessionID)
}

// SubmissionKey returns the key of a submission not yet flushed to Postgres
func (r *CacheKeyStruct) SubmissionKey(submissionID string) string {
	return fmt.Sprintf("submission:%s", submissionID)
}

var CacheKey = NewCacheKeyStruct()
