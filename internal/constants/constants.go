package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 45 * time.Second
	TimeoutRetryDelay  = 500 * time.Millisecond
	RosterFetchTimeout = 30 * time.Second
)

// Spreadsheet layout.
const (
	StartingDataEntryRow = 4
	DataEntryTabName     = "Internal"
	NamesTabName         = "'All Divisions Players'"
)

// NamesRanges hold (platform identity, source handle) pairs.
var NamesRanges = []string{"B4:C", "F4:G"}

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HelpMessageTTL   = 180 * time.Second
	NaughtyListSize  = 10
	SubmitReaction   = "🤖"
	ReplayUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/89.0.4389.82 Safari/537.36"
	ReplayRateBurst  = 2
	SheetsAPIBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
)
