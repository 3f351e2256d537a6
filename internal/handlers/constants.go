package handlers

const (
	maxJSONBody   = 1 << 20
	maxUploadSize = 10 << 20

	defaultHistoryLimit = 50
)
