package conversion

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/pdf-narrator/internal/document"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

// fakeSource returns fixed text or an error for any path.
type fakeSource struct {
	text string
	info document.Info
	err  error
}

func (f *fakeSource) Extract(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func (f *fakeSource) Inspect(ctx context.Context, path string) (document.Info, error) {
	return f.info, f.err
}

func TestServiceConvertEndToEnd(t *testing.T) {
	var spoken string
	task := newTestTask(t, tts.SynthesizerFunc(func(ctx context.Context, text string) ([]byte, error) {
		spoken = text
		return []byte("ID3"), nil
	}))
	svc := NewService(&fakeSource{text: "Hello.World."}, task, zerolog.Nop())

	out := filepath.Join(t.TempDir(), "out")
	ch, err := svc.Convert(context.Background(), "book.pdf", "Google TTS (gTTS)", out)
	require.NoError(t, err)

	events := collect(t, ch)
	last := events[len(events)-1]
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, out+".mp3", last.OutputPath)
	assert.Equal(t, "Hello.World.", spoken)
}

func TestServiceConvertBlankDocument(t *testing.T) {
	task := newTestTask(t, mp3Backend("ID3"))
	svc := NewService(&fakeSource{text: " \n "}, task, zerolog.Nop())

	ch, err := svc.Convert(context.Background(), "/docs/scan.pdf", "gtts", "out.mp3")
	assert.Nil(t, ch)
	require.ErrorIs(t, err, ErrEmptyText)
	assert.Contains(t, err.Error(), "scan.pdf")
	assert.Empty(t, task.Events().Since(0), "no events for a rejected request")
	assert.Equal(t, StateIdle, task.Status().State)
}

func TestServiceConvertOpenError(t *testing.T) {
	task := newTestTask(t, mp3Backend("ID3"))
	openErr := &document.OpenError{Path: "bad.pdf", Message: "not a document"}
	svc := NewService(&fakeSource{err: openErr}, task, zerolog.Nop())

	_, err := svc.Convert(context.Background(), "bad.pdf", "gtts", "out.mp3")
	assert.ErrorIs(t, err, document.ErrOpen)
	assert.Equal(t, StateIdle, task.Status().State)
}

func TestServiceConvertDefaultsOutputPath(t *testing.T) {
	dir := t.TempDir()
	task := newTestTask(t, mp3Backend("ID3"))
	svc := NewService(&fakeSource{text: "hi"}, task, zerolog.Nop())

	ch, err := svc.Convert(context.Background(), filepath.Join(dir, "book.pdf"), "gtts", "")
	require.NoError(t, err)

	events := collect(t, ch)
	assert.Equal(t, filepath.Join(dir, "book.mp3"), events[len(events)-1].OutputPath)
}

func TestServiceInspect(t *testing.T) {
	svc := NewService(&fakeSource{info: document.Info{Pages: 12}}, newTestTask(t, mp3Backend("x")), zerolog.Nop())

	info, err := svc.Inspect(context.Background(), "book.pdf")
	require.NoError(t, err)
	assert.Equal(t, 12, info.Pages)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "book.mp3", DefaultOutputPath("book.pdf"))
	assert.Equal(t, "/a/b/notes.mp3", DefaultOutputPath("/a/b/notes.epub"))
	assert.Equal(t, "README.mp3", DefaultOutputPath("README"))
}
