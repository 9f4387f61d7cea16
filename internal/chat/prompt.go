package chat

import (
	"strings"

	"contextchat/internal/model"
)

const systemPrompt = "You are a helpful, respectful and honest assistant."

const instruction = "Generate the next agent response by answering the question. " +
	"You are provided several documents with titles. " +
	"If you cannot answer the question from the given documents, please state I don't know."

// QAPrompt renders the Llama-2 chat prompt with the retrieved context.
func QAPrompt(context, question string) string {
	var sb strings.Builder
	sb.WriteString("[INST] <<SYS>>\n")
	sb.WriteString(systemPrompt)
	sb.WriteString("\n<</SYS>>\n\n")
	sb.WriteString(instruction)
	sb.WriteString("\nCONTEXT:\n\n")
	sb.WriteString(context)
	sb.WriteString("\nQuestion : ")
	sb.WriteString(question)
	sb.WriteString("[/INST]")
	return sb.String()
}

// CondensePrompt asks the model to turn a follow up into a standalone question.
func CondensePrompt(history []model.ChatMessage, question string) string {
	return "Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.\n\n" +
		"Chat History:\n" + FormatHistory(history) +
		"\nFollow Up Input: " + question +
		"\nStandalone question:"
}

func FormatHistory(history []model.ChatMessage) string {
	var sb strings.Builder
	for _, m := range history {
		switch m.Role {
		case model.RoleUser:
			sb.WriteString("\nHuman: ")
		case model.RoleAssistant:
			sb.WriteString("\nAssistant: ")
		default:
			sb.WriteString("\n" + m.Role + ": ")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
