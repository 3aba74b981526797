package consts

const (
	LabelBullish      = "Bullish"
	LabelBearish      = "Bearish"
	LabelNeutral      = "Neutral"
	LabelNotAvailable = "N/A"
)

const (
	BullishThreshold = 0.3
	BearishThreshold = -0.3
)

const (
	// TopDigestLimit caps top_bullish / top_bearish.
	TopDigestLimit = 5
	// TopRumorLimit caps the rumor and fact lists of a unified result.
	TopRumorLimit = 10
	// DigestTextLimit is the rune length a digest text is cut to.
	DigestTextLimit = 100
)

const (
	ReliabilityHigh   = "High"
	ReliabilityMedium = "Medium"
	ReliabilityLow    = "Low"
)
