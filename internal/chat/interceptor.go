// Package chat provides the conversational layer: canned-reply interception,
// persona prompt composition, and answer synthesis.
package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// category is one canned intent: any query containing one of its keywords
// (substring containment, not whole-word) answers with a random response.
type category struct {
	name      string
	keywords  []string
	responses []string
	// dynamic, when set, produces the response set at match time (date/time
	// categories render the current clock).
	dynamic func(now time.Time) []string
}

// Interceptor short-circuits conversational queries with canned replies.
// It runs before credential validation and before any retrieval or model
// call, so canned replies work with no API key and no uploaded documents.
type Interceptor struct {
	categories []category
	now        func() time.Time
	pick       func(n int) int
}

// NewInterceptor returns an interceptor with the built-in intent categories.
func NewInterceptor() *Interceptor {
	return &Interceptor{
		categories: builtinCategories(),
		now:        time.Now,
		pick:       rand.IntN,
	}
}

// Intercept returns a canned reply for query when it matches a category.
// Matching case-folds the query and tests substring containment against
// each category in order; the first match wins and the reply is chosen
// uniformly at random from that category's set.
func (in *Interceptor) Intercept(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, cat := range in.categories {
		for _, kw := range cat.keywords {
			if !strings.Contains(q, kw) {
				continue
			}
			responses := cat.responses
			if cat.dynamic != nil {
				responses = cat.dynamic(in.now())
			}
			return responses[in.pick(len(responses))], true
		}
	}
	return "", false
}

func builtinCategories() []category {
	return []category{
		{
			name: "greeting",
			keywords: []string{
				"hello", "hi", "hey", "greetings",
				"good morning", "good afternoon", "good evening",
				"hola", "namaste",
			},
			responses: []string{
				"Hello there! Ready to dive into your documents? What would you like to explore today?",
				"Hey! I'm your document companion - let's unlock some knowledge together.",
				"Greetings! I'm here to make your documents talk. What shall we uncover?",
				"Hello! Time to turn your documents into conversations. What's on your mind?",
				"Hi! Consider me your personal document whisperer. What would you like to know?",
			},
		},
		{
			name:     "date",
			keywords: []string{"date", "today", "what day", "current date", "todays date", "what's the date"},
			dynamic: func(now time.Time) []string {
				day := now.Format("Monday")
				date := now.Format("January 2, 2006")
				return []string{
					fmt.Sprintf("Today is %s, %s. Perfect day for some document exploration, don't you think?", day, date),
					fmt.Sprintf("It's %s (%s) - time flies when you're having fun with documents.", date, day),
					fmt.Sprintf("Today's date is %s. A %s well spent reading documents is a day well spent indeed.", date, day),
				}
			},
		},
		{
			name:     "time",
			keywords: []string{"time", "current time", "what time", "clock"},
			dynamic: func(now time.Time) []string {
				clock := now.Format("3:04 PM")
				return []string{
					fmt.Sprintf("It's %s - always a good time to learn something new from your documents.", clock),
					fmt.Sprintf("The time is %s. Time for some document adventures?", clock),
					fmt.Sprintf("Current time: %s - every moment is a great moment for knowledge discovery.", clock),
				}
			},
		},
		{
			name: "mood",
			keywords: []string{
				"how was your day", "how is your day", "how are you doing",
				"how is it going", "what's up", "whats up", "how are you",
			},
			responses: []string{
				"My day's been fantastic! I've been helping people chat with their documents. How about you?",
				"Amazing! I spent my day diving deep into documents and surfacing insights. How's your day going?",
				"Wonderful! I've been busy turning static text into conversations. What about your day?",
				"Brilliant! I love connecting people with their documents' hidden knowledge. How are you?",
			},
		},
		{
			name:     "about",
			keywords: []string{"who are you", "what are you", "about you", "introduce yourself", "tell me about yourself"},
			responses: []string{
				"I'm your friendly document assistant - a librarian who never sleeps and loves turning documents into conversations. What can I help you discover?",
				"I'm a digital document whisperer. I help people unlock the knowledge hidden in their files. Ready to explore?",
				"I'm your reading companion. I turn document searches into knowledge quests. What adventure shall we embark on?",
				"I'm a knowledge extraction specialist. Think of me as your personal document translator.",
			},
		},
		{
			name:     "capabilities",
			keywords: []string{"what can you do", "help", "capabilities", "features", "how do you work"},
			responses: []string{
				"I can read your documents, search across them instantly, answer questions in plain English, summarize content, and find specific information. Just upload your files and start asking!",
				"I speed-read entire documents in seconds, understand context, connect information across files, and explain complex topics simply. What would you like to explore?",
				"I extract key information, perform semantic search, and hold document-based conversations. Let's get started!",
			},
		},
		{
			name:     "joke",
			keywords: []string{"joke", "funny", "laugh", "humor", "entertain me"},
			responses: []string{
				"Why don't PDFs ever get lost? Because they always have their bookmarks!",
				"What's a PDF's favorite type of music? Heavy Meta-data!",
				"Why did the PDF go to therapy? It had too many layers and needed to decompress!",
				"Why are PDFs great at parties? They always bring the right format!",
			},
		},
		{
			name:     "farewell",
			keywords: []string{"bye", "goodbye", "see you", "farewell", "exit", "quit"},
			responses: []string{
				"Goodbye! Your documents and I will be here whenever you need us. Happy reading!",
				"See you later! May your documents be ever searchable and your answers always found.",
				"Farewell, knowledge seeker! Come back anytime you need to chat with your documents.",
				"Until next time! Keep exploring, keep questioning, and keep learning.",
			},
		},
		{
			name: "compliment",
			keywords: []string{
				"good job", "great", "awesome", "excellent", "amazing",
				"wonderful", "fantastic", "brilliant",
			},
			responses: []string{
				"Thank you! You're pretty awesome yourself for exploring knowledge through your documents.",
				"That means a lot! I'm just happy to help you unlock the treasures in your files.",
				"You're too kind! Teamwork makes the dream work - you ask great questions.",
				"Thanks! I love helping curious minds dive deep into documents.",
			},
		},
		{
			name:     "age",
			keywords: []string{"age", "old are you"},
			responses: []string{
				"I'm as old as your latest document upload and as young as your next question! Age is just a number in the digital realm.",
			},
		},
		{
			name:     "birthday",
			keywords: []string{"birthday"},
			responses: []string{
				"I celebrate my birthday every time you upload a new document! Each one gives me new life and purpose.",
			},
		},
		{
			name:     "favorite",
			keywords: []string{"favorite"},
			responses: []string{
				"My favorite thing? Discovering hidden gems in your documents!",
				"I love connecting dots between different parts of your documents!",
				"My favorite moments are when I help you find exactly what you need!",
				"I'm passionate about turning complex documents into simple conversations!",
			},
		},
		{
			name:     "gratitude",
			keywords: []string{"thank you", "thanks", "dhanyavaad", "thank you so much"},
			responses: []string{
				"My pleasure! That's what I'm here for - making your document journey smoother.",
				"You're very welcome! Happy to help a fellow knowledge explorer.",
				"Anytime! Your curiosity makes my day.",
				"Glad I could help! Keep those questions coming.",
			},
		},
	}
}
