// Package handler 按调用方分组的 HTTP 处理器：auth（公开认证接口）、
// customer、shop、rider 三个业务端，以及 admin 管理端，各自在子包中。
//
// 本文件让 `swag init --dir ./internal/handler` 等工具把 internal/handler
// 识别为合法的 Go 包。
package handler
