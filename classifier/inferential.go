package classifier

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/maastricht-university/listening-eye/emotion"
)

// Keyword and phrase matching is plain substring search on the lowered text,
// so "no" also matches inside "know".
var keywords = map[string][]string{
	"Happy": {
		"great", "wonderful", "fantastic", "amazing", "good", "love", "awesome",
		"enjoy", "pleased", "delighted", "win", "success", "accomplished",
		"birthday", "celebrate", "proud", "perfect", "beautiful", "sunshine",
		"excited about", "looking forward", "can't wait", "fun",
	},
	"Sad": {
		"sad", "down", "unhappy", "depressed", "miserable", "hurt", "pain",
		"lonely", "alone", "miss", "lost", "sorry", "regret", "cry", "tear",
		"heartbroken", "disappointed", "grief", "upset", "funeral", "died",
		"miss home", "homesick", "exhausted", "worn out",
	},
	"Angry": {
		"angry", "mad", "furious", "upset", "irritated", "annoyed", "frustrated",
		"hate", "unfair", "ridiculous", "blame", "fault", "stupid", "idiot",
		"terrible", "worst", "ruined", "horrible", "hell", "damn", "fed up",
		"sick of", "tired of", "had enough",
	},
	"Anxious": {
		"anxious", "nervous", "worried", "stress", "pressure", "overwhelmed",
		"afraid", "fear", "panic", "uncertain", "doubt", "risk", "concern",
		"interview", "test", "exam", "deadline", "meeting", "presentation",
		"want to go home", "need to leave", "can't stay", "have to go",
	},
	"Tired": {
		"tired", "exhausted", "sleepy", "fatigue", "drained", "no energy",
		"worn out", "need sleep", "need rest", "need a break", "can't keep going",
		"so tired", "want to sleep", "want to rest", "want to go home", "need to lie down",
		"long day", "hard day", "ready for bed", "eyes heavy",
	},
	"Hungry": {
		"hungry", "starving", "need food", "want to eat", "need to eat", "food",
		"haven't eaten", "stomach growling", "stomach rumbling", "need a meal",
		"want a snack", "dinner", "lunch", "breakfast", "craving", "appetite",
	},
	"Fearful": {
		"scared", "terrified", "horrified", "danger", "threat", "attack",
		"nightmare", "monster", "dark", "alone", "unknown", "help", "run", "hide",
		"scream", "horror", "killer", "death", "dying", "terror", "emergency",
	},
	"Excited": {
		"excited", "thrilled", "eager", "looking forward", "cant wait", "anticipate",
		"adventure", "fun", "party", "vacation", "holiday", "weekend", "opportunity",
		"chance", "new", "start", "beginning", "future", "potential", "possibility",
	},
	"Surprised": {
		"surprised", "shocked", "unexpected", "wow", "whoa", "amazing", "unbelievable",
		"incredible", "what", "how", "suddenly", "no way", "impossible", "cant believe",
		"believe it", "really", "serious", "never thought", "never expected",
	},
	"Disgusted": {
		"disgusting", "gross", "sick", "nasty", "eww", "vomit", "rotten", "filthy",
		"dirty", "ugly", "horrible", "worst", "unacceptable", "terrible", "creepy",
	},
	"Confused": {
		"confused", "unsure", "dont understand", "lost", "complicated", "complex",
		"what do you mean", "unclear", "not sure", "dont get it", "strange",
		"weird", "bizarre", "odd", "wonder", "question", "how", "why", "when",
		"don't know why", "don't even know",
	},
	"Neutral": {
		"okay", "fine", "alright", "normal", "regular", "usual", "so-so", "meh",
	},
}

var negations = []string{"not", "no", "never", "don't", "doesn't", "didn't", "isn't", "aren't", "wasn't", "weren't"}

// a negated label lends half a point to its opposite
var opposite = map[string]string{
	"Happy": "Sad", "Sad": "Happy",
	"Tired": "Excited", "Excited": "Tired",
}

var phrases = map[string]map[string]float64{
	"want to go home":       {"Tired": 2, "Anxious": 1},
	"need to go home":       {"Tired": 2, "Anxious": 1},
	"long day":              {"Tired": 2},
	"so hungry":             {"Hungry": 3},
	"so tired":              {"Tired": 3},
	"don't know why":        {"Confused": 2},
	"don't even know":       {"Confused": 2},
	"just like really want": {"Anxious": 1.5, "Tired": 1},
	"been a long day":       {"Tired": 2.5},
	"had a really long day": {"Tired": 3},
	"feeling happy":         {"Happy": 3},
	"feeling sad":           {"Sad": 3},
	"feeling angry":         {"Angry": 3},
	"feeling tired":         {"Tired": 3},
	"feeling hungry":        {"Hungry": 3},
	"feeling anxious":       {"Anxious": 3},
	"feeling confused":      {"Confused": 3},
	"don't even know why":   {"Confused": 3},
}

type contextRule struct {
	any   []string
	boost map[string]float64
}

var contextRules = []contextRule{
	{[]string{"got a promotion", "graduated", "passed my test", "got the job", "won", "won the"}, map[string]float64{"Happy": 2, "Excited": 1}},
	{[]string{"lost my", "broke up", "failed", "missed", "too late", "never get to"}, map[string]float64{"Sad": 2}},
	{[]string{"deadline", "running late", "not enough time", "have to finish", "due tomorrow"}, map[string]float64{"Anxious": 2}},
	{[]string{"cant sleep", "heart racing", "shaking", "trembling", "sweat", "sweating"}, map[string]float64{"Anxious": 2, "Fearful": 1}},
	{[]string{"yelled", "screamed", "threw", "broke", "hit", "slammed", "cursed"}, map[string]float64{"Angry": 2}},
	{[]string{"need a nap", "could sleep for days", "barely keeping eyes open", "so sleepy"}, map[string]float64{"Tired": 3}},
	{[]string{"stomach growling", "haven't eaten all day", "need to eat soon", "starving"}, map[string]float64{"Hungry": 3}},
	{[]string{"beautiful day", "sunny", "perfect weather", "lovely outside"}, map[string]float64{"Happy": 1}},
	{[]string{"rainy", "dark", "gloomy", "alone in"}, map[string]float64{"Sad": 1}},
}

var intensifiers = []string{"very", "really", "extremely", "so", "totally", "absolutely", "completely", "utterly", "super"}

// Inferential is the keyword rule classifier used when no language model is
// configured or the model call fails. It never returns an error for
// non-empty text.
type Inferential struct{}

func (Inferential) Classify(_ context.Context, text string) (*emotion.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	label, intensity := Infer(text)
	return Result(label, intensity), nil
}

// Infer returns the winning label and its intensity.
func Infer(text string) (string, int) {
	scores := Scores(text)
	label := Labels[0]
	for _, l := range Labels[1:] {
		if scores[l] > scores[label] {
			label = l
		}
	}
	factor := math.Min(2, scores[label]) / 2
	intensity := int(baseIntensity[label] * factor * 1.2)
	if intensity > 100 {
		intensity = 100
	}
	if intensity < -100 {
		intensity = -100
	}
	return label, intensity
}

// Scores runs every rule and returns the per-label score.
func Scores(text string) map[string]float64 {
	lower := strings.ToLower(text)
	scores := make(map[string]float64, len(Labels))
	for _, l := range Labels {
		scores[l] = 0
	}
	scores["Neutral"] = 0.5

	for label, kws := range keywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				scores[label]++
			}
		}
	}

	for _, neg := range negations {
		idx := strings.Index(lower, neg)
		if idx < 0 {
			continue
		}
		tail := lower[idx:]
		for label, kws := range keywords {
			for _, kw := range kws {
				if !strings.Contains(tail, kw) {
					continue
				}
				scores[label]--
				if opp, ok := opposite[label]; ok {
					scores[opp] += 0.5
				}
			}
		}
	}

	for phrase, boost := range phrases {
		if strings.Contains(lower, phrase) {
			for label, s := range boost {
				scores[label] += s
			}
		}
	}

	for _, r := range contextRules {
		for _, p := range r.any {
			if strings.Contains(lower, p) {
				for label, s := range r.boost {
					scores[label] += s
				}
				break
			}
		}
	}

	switch n := strings.Count(text, "!"); {
	case n >= 3:
		scores["Excited"] += 2
		scores["Happy"]++
		scores["Surprised"]++
	case n >= 1:
		scores["Excited"]++
		scores["Happy"] += 0.5
	}
	switch n := strings.Count(text, "?"); {
	case n >= 3:
		scores["Confused"] += 2
		scores["Anxious"]++
	case n >= 1:
		scores["Confused"] += 0.5
	}

	boost := 0.0
	for _, w := range intensifiers {
		if strings.Contains(lower, w) {
			boost += 0.2
		}
	}
	if boost > 0 {
		for _, l := range topLabels(scores, 2) {
			scores[l] += boost
		}
	}

	top := scores[Labels[0]]
	for _, l := range Labels {
		top = math.Max(top, scores[l])
	}
	if top < 1 {
		scores["Neutral"] = 2
	}
	return scores
}

// topLabels returns the n best labels, ties in Labels order.
func topLabels(scores map[string]float64, n int) []string {
	ls := append([]string(nil), Labels...)
	sort.SliceStable(ls, func(i, j int) bool { return scores[ls[i]] > scores[ls[j]] })
	return ls[:n]
}
