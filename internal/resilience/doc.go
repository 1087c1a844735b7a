// Package resilience provides fault tolerance patterns for the update pipeline.
// It includes retry logic with exponential backoff and circuit breakers for
// external dependencies (feed endpoints, article pages, AI providers) as well
// as the local database.
package resilience
