package bot

const HelpText = `I answer questions with a language model and remember the last 20 messages of our chat.

Send me:
- text: any question
- a photo: I read the text on it
- a PDF document: I read its text layer

Add a caption to a photo or PDF to ask something specific about it.

Commands:
/help - show this message
/clear - forget our conversation
/stats - show your usage
/search <query> - answer using fresh web search results`

const (
	ClearedText          = "Conversation history cleared!"
	UnknownCommandText   = "Unknown command. Use /help to see available commands."
	SearchUsageText      = "Please provide a query. Example: /search latest Go release"
	NotAllowedText       = "This command is available to the administrator only."
	UnsupportedInputText = "I can read text messages, photos and PDF documents."
	TooLargeText         = "The file is too large for me to read."
	DownloadFailedText   = "I couldn't download the file, please send it again."
	ExtractFailedText    = "I couldn't read this file."
	EmptyExtractText     = "I couldn't find any text in this file."
)

// Attachment text beyond this many runes is cut before it reaches the model.
const maxAttachmentRunes = 12000

const truncatedNote = "\n\n[The document was truncated; only the first part is included.]"

const defaultPDFQuestion = "Here is the text of a PDF document I sent. Summarize it and point out the key facts."

const defaultImageQuestion = "Here is the text recognized on a photo I sent. Explain what it says."

const attachmentTemplate = "%s\n\n--- %s ---\n%s"
