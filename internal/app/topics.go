package app

// defaultTopics is the built-in roulette pool. Each topic frames the life
// story the company tells with its satisfaction curve.
var defaultTopics = []string{
	"Work and career",
	"School days",
	"Family",
	"Friendships",
	"Romance",
	"Money",
	"Health and fitness",
	"Hobbies",
	"Travel",
	"Food adventures",
	"Sports",
	"Music",
	"Movies and TV",
	"Books",
	"Video games",
	"Pets",
	"Living situations",
	"Hometown memories",
	"First jobs",
	"Side projects",
	"Learning new skills",
	"Embarrassing moments",
	"Proudest achievements",
	"Biggest risks taken",
	"Habits and routines",
	"Fashion choices",
	"Technology in my life",
	"Social life",
	"Holidays and celebrations",
	"Nature and outdoors",
	"Creative pursuits",
	"Volunteering",
	"Sleep",
	"Commuting",
	"Cooking",
	"Collections",
	"Luck",
	"Self-confidence",
	"Free time",
	"Dreams for the future",
}

// DefaultTopics returns a copy of the built-in roulette topic pool.
func DefaultTopics() []string {
	return append([]string(nil), defaultTopics...)
}
