package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"wealthnav/internal/core"
	"wealthnav/internal/extract"
	applog "wealthnav/internal/log"
	"wealthnav/internal/services"
	"wealthnav/internal/session"
)

var templateFuncs = template.FuncMap{
	"yen":    formatYen,
	"signed": func(y core.Yen) string { return y.Signed() },
	"sign": func(y core.Yen) string {
		switch {
		case y > 0:
			return "up"
		case y < 0:
			return "down"
		}
		return ""
	},
}

// formatYen renders any whole-yen figure, e.g. "¥1,150,000".
func formatYen(v any) string {
	switch x := v.(type) {
	case core.Yen:
		return x.String()
	case core.Goal:
		return core.Yen(x).String()
	case int64:
		return core.Yen(x).String()
	case int:
		return core.Yen(x).String()
	default:
		return fmt.Sprint(v)
	}
}

// userMessage maps an error onto the text shown to the operator. Store
// failures and extraction failures read differently so the operator knows
// whether to retry or type the figures in.
func userMessage(err error) string {
	var persistErr *services.PersistError
	var storeErr *core.StoreError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &persistErr):
		return "台帳への保存に失敗しました。入力内容は残っています。もう一度送信してください。"
	case errors.As(err, &storeErr):
		return fmt.Sprintf("台帳 (%s) に接続できませんでした。しばらくしてから再度お試しください。", storeErr.Backend)
	case errors.Is(err, extract.ErrNoCandidate):
		return "画像から数値を読み取れませんでした。手入力してください。"
	case errors.Is(err, extract.ErrTooMany), errors.Is(err, errTooMany):
		return fmt.Sprintf("画像は最大%d枚までです。", extract.MaxImages)
	case errors.Is(err, errNoImages), errors.Is(err, extract.ErrNoImages):
		return "画像を選択してください。"
	case errors.Is(err, errNotImage):
		return "PNG または JPEG の画像を選択してください。"
	case errors.Is(err, errImageSize):
		return "画像が大きすぎます。"
	case errors.Is(err, errFormInput):
		return "入力内容が正しくありません: " + strings.TrimPrefix(err.Error(), errFormInput.Error()+": ")
	case errors.Is(err, session.ErrInvalidTransition):
		return "この確認はすでに処理されています。"
	case errors.Is(err, context.DeadlineExceeded):
		return "処理がタイムアウトしました。"
	default:
		return "エラーが発生しました。しばらくしてから再度お試しください。"
	}
}

// extractionMessage is userMessage for Extractor errors: anything that is not
// a recognised outcome means the model could not be reached.
func extractionMessage(err error) string {
	if errors.Is(err, extract.ErrNoCandidate) || errors.Is(err, extract.ErrNoImages) || errors.Is(err, extract.ErrTooMany) {
		return userMessage(err)
	}
	return "解析サービスに接続できませんでした。手入力で記録できます。"
}

// statusFor picks the response status for a failed record.
func statusFor(err error) int {
	var storeErr *core.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render executes name into a buffer first so a template error never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).Error("Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Template execution failed", err, applog.OpRender, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
