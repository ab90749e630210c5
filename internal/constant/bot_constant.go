package constant

// Callback payload prefixes. These are the wire protocol between the inline
// keyboards we send and the callback queries Telegram sends back.
const (
	CallbackCategoryPrefix   = "cat_"
	CallbackPagePrefix       = "page_"
	CallbackSelectPrefix     = "select_"
	CallbackDetailPrefix     = "detail_"
	CallbackSuggestionPrefix = "sugg_"
	CallbackBackToCategories = "back_to_categories"
	CallbackNoop             = "noop"
)

const (
	DetailLevelSimple   = "simple"
	DetailLevelDetailed = "detailed"
)

// SuggestionSeparator is the token the model is instructed to emit between
// the answer body and the follow-up question list.
const SuggestionSeparator = "###SUGGESTED_QUESTIONS###"

const BooksPerPage = 5

// User-facing messages. Failures are always a short apology, never raw errors.
const (
	MsgNoDocument        = "⚠️ Please upload or select a document first."
	MsgDocumentMissing   = "⚠️ I can't find the loaded document. Please upload or select it again."
	MsgDocumentUnread    = "⚠️ I couldn't read the content of the selected document."
	MsgQuestionLost      = "⚠️ I couldn't recover your question. Please ask it again."
	MsgSuggestionExpired = "⚠️ This button has expired."
	MsgAiError           = "⚠️ Sorry, something went wrong with the AI. Please try again."
	MsgFileError         = "⚠️ Unexpected error while processing your file."
	MsgInvalidSelection  = "⚠️ Invalid selection."
	MsgPaginationError   = "⚠️ Pagination error."
	MsgEmptyCategory     = "⚠️ This category is empty or no longer exists."
	MsgEmptyLibrary      = "There are no books in the local library."
	MsgProcessingFile    = "⏳ Processing your file..."
	MsgAnalyzing         = "🧠 Analyzing your question..."
	MsgDetailPrompt      = "How would you like the answer?"
)

const WelcomeMessage = `👋 Welcome to your *Personal Study Assistant*! 📚

Upload your reading material, or pick one from the library with /books, and I'll answer any question about it.

📂 *Accepted formats:*
· *PDF* 📄
· *DOCX* (Microsoft Word) 📝
· *EPUB* (e-books) 📱
· *TXT* (plain text) 📜
· *HTML* (saved web pages) 🌐

🚀 *How it works:*

1. *Upload a file* in any of the formats above.
2. *Ask your question* — anything, as long as it's about the document.
3. *Get the answer!* I reply using *only* the information inside your document.

Let's study! 🧠✨`

// Prompt scaffolding for the grounded answer. The document text goes between
// the begin/end markers so the model can tell instructions from content.
const (
	GroundedPromptHeader = `You are an expert tutor on the provided document. Your mission is to answer the user's questions based STRICTLY on that information, structuring the answer visually with headings and emojis.`

	DetailInstructionSimple = `explain very concisely, in one or two paragraphs.`

	DetailInstructionDetailed = `It is crucial that the answer is deep and exhaustive. Search the text for multiple viewpoints, examples, definitions and related context to build your answer. The answer must not be a mere summary; it must span several paragraphs and explore the topic thoroughly, using all the relevant information available in the document.`

	GroundedPromptRules = `**Content rule:** If the question cannot be answered from the document, kindly reply that you can't find the information.
**MANDATORY format rule:** Your reply MUST follow this exact structure:
1. The answer to the user's question.
2. The special separator ` + "`" + SuggestionSeparator + "`" + `. This section is NOT optional.
3. A list of 2 or 3 relevant follow-up questions, each on its own line.`

	DocumentBeginMarker = "--- BEGIN DOCUMENT CONTENT ---"
	DocumentEndMarker   = "--- END DOCUMENT CONTENT ---"
)
