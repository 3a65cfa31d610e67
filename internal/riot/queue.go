package riot

// Queue identifiers
const (
	QueueRankedSolo  = 420
	QueueRankedFlex  = 440
	QueueNormalDraft = 400
	QueueNormalBlind = 430
)

// trackedQueues are the competitive modes eligible for presence notifications
var trackedQueues = map[int]bool{
	QueueRankedSolo:  true,
	QueueRankedFlex:  true,
	QueueNormalDraft: true,
	QueueNormalBlind: true,
}

var queueNames = map[int]string{
	QueueRankedSolo:  "Ranked Solo",
	QueueRankedFlex:  "Ranked Flex",
	QueueNormalDraft: "Normal Draft",
	QueueNormalBlind: "Normal Blind",
	450:              "ARAM",
	900:              "URF",
	1020:             "One for All",
	1300:             "Nexus Blitz",
	1400:             "Ultimate Spellbook",
	1700:             "Arena",
}

// IsTrackedQueue reports whether a queue is in the tracked allow-list
func IsTrackedQueue(queueID int) bool {
	return trackedQueues[queueID]
}

// GetQueueName returns a human-readable queue name
func GetQueueName(queueID int) string {
	if name, ok := queueNames[queueID]; ok {
		return name
	}
	return "Unknown mode"
}
