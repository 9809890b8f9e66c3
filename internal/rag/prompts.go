package rag

import (
	"fmt"
	"strings"

	"document-qa/internal/config"
)

// apologyResponse is returned whenever the LLM call itself fails.
const apologyResponse = "I apologize, but I encountered an error generating the response."

// greetingTokens is the fixed set that triggers interception. Matching
// is by whole token, so words like "think" or "highlight" never trip
// it.
var greetingTokens = map[string]struct{}{
	"hello":     {},
	"hi":        {},
	"hey":       {},
	"greetings": {},
}

const systemPromptFormat = `You are an expert AI assistant specializing in %[1]s. Your knowledge comes exclusively from the "%[2]s" eBook.

CRITICAL INSTRUCTIONS:
1. Answer questions ONLY using information from the provided context
2. If the context doesn't contain relevant information, clearly state: "I don't have information about that in the provided eBook."
3. DO NOT make up or infer information beyond what's in the context
4. Always cite the page number when providing information
5. Be precise, accurate, and professional
6. If asked about topics not covered in the eBook, politely decline

Your responses should be:
- Direct and concise
- Well-structured with clear explanations
- Grounded in the provided context
- Properly attributed to source pages`

const userPromptFormat = `Based on the following context from the %[1]s eBook, please answer the user's question.

CONTEXT:
%[2]s

USER QUESTION: %[3]s

INSTRUCTIONS:
- Answer using ONLY the information provided in the context above
- Cite the page number(s) where you found the information
- If the context doesn't contain the answer, say so clearly
- Be specific and accurate
- Structure your answer logically

ANSWER:`

const noContextFormat = `I apologize, but I don't have information about that specific topic in the %[1]s eBook that I have access to.

The eBook covers topics such as:
%[2]s

Could you rephrase your question or ask about one of these topics?`

const greetingFormat = `Hello! I'm an AI assistant specialized in %[1]s, based on the comprehensive eBook "%[2]s".

I can help you understand topics such as:
%[3]s

What would you like to know about %[1]s?`

// Prompts carries every fixed text the pipeline emits, rendered once
// from the document's subject, title and topic list.
type Prompts struct {
	System    string
	NoContext string
	Greeting  string

	subject string
}

// NewPrompts renders the prompt set for one document.
func NewPrompts(doc *config.DocumentConfig) *Prompts {
	topics := make([]string, len(doc.Topics))
	for i, topic := range doc.Topics {
		topics[i] = "- " + topic
	}
	topicList := strings.Join(topics, "\n")

	return &Prompts{
		System:    fmt.Sprintf(systemPromptFormat, doc.Subject, doc.Title),
		NoContext: fmt.Sprintf(noContextFormat, doc.Subject, topicList),
		Greeting:  fmt.Sprintf(greetingFormat, doc.Subject, doc.Title, topicList),
		subject:   doc.Subject,
	}
}

// UserPrompt merges the assembled context and the verbatim question
// into the grounding template handed to the LLM.
func (p *Prompts) UserPrompt(contextText, question string) string {
	return fmt.Sprintf(userPromptFormat, p.subject, contextText, question)
}
