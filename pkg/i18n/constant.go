package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"vi":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_DOCUMENT_EMPTY          = "error.document.empty"
	ERROR_DOCUMENT_UNSUPPORTED    = "error.document.unsupported"
	ERROR_EMBEDDING_FAILED        = "error.embedding.failed"
	ERROR_ANSWER_GENERATE_FAILED  = "error.answer.generate.failed"
	ERROR_DOCUMENT_NOT_RETRYABLE  = "error.document.not.retryable"
	ERROR_WORKSPACE_NOT_PERMITTED = "error.workspace.not.permitted"

	MESSAGE_NO_RELEVANT_CONTEXT = "message.query.no_relevant_context"
)
