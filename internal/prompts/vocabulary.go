package prompts

// PhoneticSounds is the onomatopoeic vocabulary a creature's sound is drawn from.
var PhoneticSounds = []string{
	"rawr", "raaahh", "mreow", "wulf", "chirp", "purr", "squeak", "giggle",
	"woof", "meow", "tweet", "grr", "peep", "mur", "yip", "coo",
	"snuffle", "waddle", "bounce", "wiggle", "sparkle", "glow", "whisper", "blorp",
	"floop", "zorp", "grwar", "yeeeep", "yaaaa", "meeiiii", "quat", "keekee",
	"prupru",
}

// IsPhoneticSound reports whether s is in PhoneticSounds.
func IsPhoneticSound(s string) bool {
	for _, p := range PhoneticSounds {
		if p == s {
			return true
		}
	}
	return false
}

// CareQuestion is one incubation question shown to the user.
type CareQuestion struct {
	ID          string `json:"id"          example:"feelings"`
	Question    string `json:"question"    example:"How does the egg make you feel?"`
	Placeholder string `json:"placeholder" example:"e.g., peaceful, excited, protective, curious..."`
}

// CareQuestions lists every question the incubation step can ask.
var CareQuestions = []CareQuestion{
	{ID: "activities", Question: "What activities do you do with the egg?", Placeholder: "e.g., sing lullabies, read stories, gentle rocking..."},
	{ID: "feelings", Question: "How does the egg make you feel?", Placeholder: "e.g., peaceful, excited, protective, curious..."},
	{ID: "time_spent", Question: "How much time did you spend daily with the egg?", Placeholder: "e.g., all day, just mornings, whenever I pass by..."},
	{ID: "description", Question: "What's a word you would use to describe the egg?", Placeholder: "e.g., magical, peaceful, mysterious, precious..."},
	{ID: "sounds", Question: "What sounds do you think the egg makes?", Placeholder: "e.g., gentle humming, soft whispers, quiet rustling..."},
	{ID: "favorite_thing", Question: "What's your favorite thing about the egg?", Placeholder: "e.g., its colors, the way it glows, its patterns..."},
	{ID: "comfort", Question: "How do you comfort the egg when it seems restless?", Placeholder: "e.g., gentle touches, soft words, warm blankets..."},
	{ID: "whispers", Question: "What do you whisper to the egg?", Placeholder: "e.g., secrets, hopes, dreams, encouragement..."},
	{ID: "favorite_spot", Question: "What's the egg's favorite spot in your home?", Placeholder: "e.g., by the window, near the fireplace, in the garden..."},
	{ID: "celebration", Question: "How do you celebrate the egg's progress?", Placeholder: "e.g., special treats, decorations, songs, dances..."},
}
