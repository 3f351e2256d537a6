// Package learning implements quiz-style learning sessions over a set of
// vocabulary words.
//
// A session samples up to MaxSessionWords words from a set, asks for the
// meaning of each one as a multiple-choice question and keeps score. When
// the last question has been answered and the learner advances, the session
// is finished and a Persister writes one history record for it.
//
// Sessions are plain values with no locking. Callers that share a session
// between goroutines must serialise access themselves.
package learning
