package services

// CodedError 带稳定错误码的业务错误，错误码原样透传给 API 层
type CodedError struct {
	Code    string
	Status  int
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

// coded 构造业务错误
func coded(code string, status int, message string) *CodedError {
	return &CodedError{Code: code, Status: status, Message: message}
}

var (
	ErrNotFound     = coded("not_found", 404, "record not found")
	ErrNotPermitted = coded("not_permitted", 403, "operation not permitted")
	ErrNotOwner     = coded("not_owner", 403, "not the owner of this object")
	ErrInvalid      = coded("invalid", 400, "invalid input")
	ErrNotEditable  = coded("not_editable", 400, "object cannot be edited yet")
	ErrNotVerified  = coded("not_verified", 403, "account not verified")

	// 邮箱变更
	ErrSameEmail       = coded("same_email", 400, "new email is identical to the current one")
	ErrEmailInUse      = coded("email_in_use", 400, "email already in use by an active account")
	ErrExpiredToken    = coded("expired_token", 400, "token has expired")
	ErrInvalidToken    = coded("invalid_token", 400, "token is invalid")
	ErrAlreadyVerified = coded("already_verified", 400, "change already verified or binding expired")

	// 媒体暂存
	ErrConflictingMedia  = coded("conflicting_media", 409, "photos and video cannot be staged together")
	ErrMaxPhotosAttained = coded("max_photos_attained", 400, "photo buffer is full")
	ErrLargeFile         = coded("large_file", 400, "file exceeds the size limit")
	ErrCorruptFile       = coded("corrupt_file", 400, "file content does not match its declared type")

	// 举报
	ErrDuplicateFlag     = coded("duplicate_flag", 409, "target already flagged by this user")
	ErrCannotFlagOwnPost = coded("cannot_flag_own_post", 400, "cannot flag own post")
	ErrNotFlagged        = coded("not_flagged", 404, "no flag instance by this user on this target")
	ErrInvalidState      = coded("invalid_state", 400, "flag cannot be toggled to this state")

	// 其它
	ErrMultiplePostPin = coded("multiple_post_pin", 409, "only one post can be pinned at a time")
	ErrRateLimited     = coded("rate_limited", 429, "monthly download quota exhausted")
	ErrMissingField    = coded("missing_field", 400, "required field is missing")
	ErrMisconfigured   = coded("misconfigured", 500, "soft-delete mode is disabled")
	ErrSelfFollow      = coded("invalid", 400, "cannot follow yourself")
	ErrSelfBlock       = coded("invalid", 400, "cannot block yourself")
)
