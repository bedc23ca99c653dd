package catalog

import (
	"slices"
	"strings"
)

// General is the topic assigned to videos that match no keyword.
const General = "general"

// topicKeywords maps each topic to the title keywords that select it.
// Matching is plain substring containment on the lower-cased title, so
// "hand" also fires inside "backhand".
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"putting", []string{"putt", "putting", "putter", "confidence", "straddle", "turbo"}},
	{"driving", []string{"drive", "driving", "distance", "power", "long", "max"}},
	{"forehand", []string{"forehand", "sidearm", "flick"}},
	{"backhand", []string{"backhand", "form", "technique", "throw", "throwing"}},
	{"approach", []string{"approach", "upshot", "shot", "shots"}},
	{"grip", []string{"grip", "hand", "finger", "hold"}},
	{"beginner", []string{"beginner", "basic", "basics", "start", "first"}},
	{"advanced", []string{"advanced", "pro", "professional", "expert", "training", "camp"}},
	{"angle", []string{"angle", "angles", "anhyzer", "hyzer", "flat", "control"}},
	{"specialty", []string{"roller", "overhead", "thumber", "tomahawk", "360"}},
	{"mindset", []string{"mindset", "mental", "confidence", "strategy", "game"}},
	{"equipment", []string{"disc", "discs", "equipment", "bag", "gear", "choosing"}},
}

// Topics returns the topic vocabulary in classification order, without
// the General sentinel.
func Topics() []string {
	topics := make([]string, 0, len(topicKeywords))
	for _, t := range topicKeywords {
		topics = append(topics, t.topic)
	}
	return topics
}

// IsTopic reports whether name is a known topic or General.
func IsTopic(name string) bool {
	return name == General || slices.Contains(Topics(), name)
}

// Classify assigns topics to a title. A title may match several topics;
// one that matches none gets exactly [General].
func Classify(title string) []string {
	lower := strings.ToLower(title)

	var topics []string
	for _, t := range topicKeywords {
		for _, keyword := range t.keywords {
			if strings.Contains(lower, keyword) {
				topics = append(topics, t.topic)
				break
			}
		}
	}

	if len(topics) == 0 {
		return []string{General}
	}
	return topics
}
