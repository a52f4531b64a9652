package vision

import (
	"fmt"
	"strings"
)

const analyzeSystemPrompt = `You name screens of mobile and web apps for a user flow library. Given a screenshot, write an action-oriented title of two to five words and a description of one or two sentences.

Respond with JSON only, in this shape:
{"title": "Action or task name", "description": "What the user does on this screen."}

Title rules:
- Describe the task, never append "Screen" ("Searching posts", not "Search Screen").
- Use gerunds for tasks in progress ("Adding a comment", "Muting notifications").
- Use nouns for destinations ("Chat settings", "Post detail").
- Be specific about context ("Replying to a comment", not "Reply").
- Follow the naming style of the other screens in the app when they are listed.`

const analyzeUserPrompt = "Analyze this app screenshot and provide a title and description:"

const detectPrompt = `You are finding every clickable UI element in an app screenshot to build an interactive prototype.

Bounding boxes must be tight around the clickable area of each element, with no padding or surrounding whitespace.

For each element return:
- "type": one of button, link, tab, card, icon, input, other
- "label": the exact visible text of the element
- "description": a short description of what it does
- "boundingBox": {"x", "y", "width", "height"} as percentages (0-100) of the image, where x and y are the LEFT and TOP edges
- "confidence": 0.0 to 1.0, how sure you are the element is interactive

Include primary actions, navigation (tabs, back buttons, menu items), interactive cards and list rows, form inputs and links.
Skip decorative images, static text and system chrome such as the status bar.

Respond with a JSON array only, for example:
[{"type": "button", "label": "Sign In", "description": "Primary sign-in button", "boundingBox": {"x": 12, "y": 72, "width": 76, "height": 6}, "confidence": 0.95}]`

// ContextScreen describes a sibling screen used to keep naming consistent.
type ContextScreen struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func analyzeSystem(siblings []ContextScreen) string {
	if len(siblings) == 0 {
		return analyzeSystemPrompt
	}
	var b strings.Builder
	b.WriteString(analyzeSystemPrompt)
	b.WriteString("\n\nOther screens in this app:")
	for _, s := range siblings {
		if s.Description != "" {
			fmt.Fprintf(&b, "\n- %s: %s", s.Title, s.Description)
		} else {
			fmt.Fprintf(&b, "\n- %s", s.Title)
		}
	}
	return b.String()
}
