package consts

import "time"

const (
	// Built-in collectors
	SourceTelegram = "telegram"
	SourceReddit   = "reddit"
	SourceNaver    = "naver"
)

const (
	// MatchDirect marks a message found by the ticker or one of its aliases.
	MatchDirect = "direct"
	// MatchTheme marks a message found by a thematic keyword.
	MatchTheme = "theme"
)

// DateLayout is the single output format for message dates.
const DateLayout = "2006-01-02 15:04:05"

// KST is the zone every collector normalises dates into.
var KST = time.FixedZone("KST", 9*60*60)
