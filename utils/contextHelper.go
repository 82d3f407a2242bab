package utils

import (
	"context"

	"github.com/mmdatafocus/shop_console/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeySessionId     = appctx.ContextKeySessionId
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin       = appctx.ContextKeyIsAdmin
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetSessionIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeySessionId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetSessionIdInContext(ctx context.Context, sessionId string) context.Context {
	return appctx.Set(ctx, ContextKeySessionId, sessionId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}
