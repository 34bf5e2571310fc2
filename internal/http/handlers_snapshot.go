package http

import (
	"errors"
	"io"
	"net/http"

	"wealthnav/internal/core"
	"wealthnav/internal/extract"
	applog "wealthnav/internal/log"
	"wealthnav/internal/session"
)

const (
	maxUploadBytes = 20 << 20
	maxImageBytes  = 8 << 20
)

type confirmView struct {
	Token  string
	Form   entryForm
	Error  string
	Notice string
}

// handleCreateSnapshot records a manually entered snapshot.
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderIndexError(w, r, http.StatusBadRequest, entryForm{}, "リクエストの形式が正しくありません。")
		return
	}
	form := entryFormFrom(r.Form)
	date, entry, err := form.parse(s.today())
	if err != nil {
		s.renderIndexError(w, r, http.StatusUnprocessableEntity, form, userMessage(err))
		return
	}
	if err := s.record(r, date, entry); err != nil {
		s.renderIndexError(w, r, statusFor(err), form, userMessage(err))
		return
	}
	http.Redirect(w, r, "/?recorded=1", http.StatusSeeOther)
}

// handleExtract reads uploaded screenshots and shows the candidate figures for
// confirmation. Any extraction failure still shows the form, empty, so the
// operator can fall back to manual entry.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.deps.Extractor == nil {
		http.Error(w, "extraction is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderIndexError(w, r, http.StatusBadRequest, entryForm{Date: s.today().Format("2006-01-02")}, "画像のアップロードに失敗しました。")
		return
	}
	images, err := readImages(r)
	if err != nil {
		s.renderIndexError(w, r, http.StatusUnprocessableEntity, entryForm{Date: s.today().Format("2006-01-02")}, userMessage(err))
		return
	}

	today := s.today()
	view := confirmView{Form: entryForm{Date: today.Format("2006-01-02")}}
	entry, err := s.deps.Extractor.Extract(ctx, images...)
	if err != nil {
		applog.FromContext(ctx).Warn("Extraction failed", applog.FieldImages, len(images), applog.FieldError, err)
		view.Error = extractionMessage(err)
	} else {
		view.Form = entryFormOf(today, entry)
		view.Notice = "画像を認識しました。数値を確認してください。"
	}

	// A failed extraction still opens a confirmation carrying zero figures;
	// the operator types them in.
	c, err := session.Confirmation{}.Extract(today, entry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	view.Token = c.Token()
	s.render(w, r, http.StatusOK, "confirm.html", view)
}

// handleConfirm settles a pending confirmation: cancel discards it, confirm
// records the figures as finally entered.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	c, err := session.ParseToken(r.PostForm.Get("token"))
	if err != nil {
		http.Error(w, "確認情報が無効です。もう一度やり直してください。", http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("action") == "cancel" {
		if _, err := c.Cancel(); err != nil {
			http.Error(w, "この確認はすでに処理されています。", http.StatusConflict)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := entryFormFrom(r.PostForm)
	rerender := func(status int, msg string) {
		s.render(w, r, status, "confirm.html", confirmView{Token: c.Token(), Form: form, Error: msg})
	}

	fallback, err := c.SnapshotDate()
	if err != nil {
		fallback = s.today()
	}
	date, entry, err := form.parse(fallback)
	if err != nil {
		rerender(http.StatusUnprocessableEntity, userMessage(err))
		return
	}
	confirmed, err := c.Confirm(entry)
	if err != nil {
		http.Error(w, "この確認はすでに処理されています。", http.StatusConflict)
		return
	}
	if err := s.record(r, date, confirmed.Candidate); err != nil {
		// The token still holds the Extracted state, so the same form can be
		// resubmitted.
		rerender(statusFor(err), userMessage(err))
		return
	}
	applog.FromContext(ctx).Info("Extracted snapshot confirmed", applog.FieldSnapshotDate, date.String())
	http.Redirect(w, r, "/?recorded=1", http.StatusSeeOther)
}

func (s *Server) record(r *http.Request, date core.Date, entry core.Entry) error {
	ctx := r.Context()
	if _, err := s.deps.Snapshots.Record(ctx, date, entry); err != nil {
		applog.FromContext(ctx).LogError(ctx, "Snapshot record failed", err, applog.OpRecord,
			applog.FieldSnapshotDate, date.String())
		return err
	}
	return nil
}

func (s *Server) renderIndexError(w http.ResponseWriter, r *http.Request, status int, form entryForm, msg string) {
	view := s.newIndexView(r, form)
	view.Error = msg
	s.renderIndex(w, r, status, view)
}

var (
	errNoImages  = errors.New("no images")
	errTooMany   = errors.New("too many images")
	errNotImage  = errors.New("unsupported image type")
	errImageSize = errors.New("image too large")
)

func readImages(r *http.Request) ([]extract.Image, error) {
	files := r.MultipartForm.File["images"]
	switch {
	case len(files) == 0:
		return nil, errNoImages
	case len(files) > extract.MaxImages:
		return nil, errTooMany
	}

	images := make([]extract.Image, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			return nil, errImageSize
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		mime := http.DetectContentType(data)
		if mime != "image/png" && mime != "image/jpeg" {
			return nil, errNotImage
		}
		images = append(images, extract.Image{Data: data, MIMEType: mime})
	}
	return images, nil
}
