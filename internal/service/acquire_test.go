package service

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"person-detector-go/internal/apperrors"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("image bytes"), 0644)
}

func acquireService(t *testing.T) (*DetectionService, string) {
	t.Helper()
	tempDir := t.TempDir()
	return NewDetectionService(nil, nil, testLogger(), tempDir), tempDir
}

// makeFileHeader собирает multipart.FileHeader так же,
// как его получает обработчик из запроса
func makeFileHeader(t *testing.T, fieldFilename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fieldFilename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveUploadedFile(t *testing.T) {
	svc, tempDir := acquireService(t)

	header := makeFileHeader(t, "cat.jpg", "image/jpeg", []byte("jpeg data"))
	path, filename, err := svc.SaveUploadedFile(header)
	require.NoError(t, err)

	assert.Equal(t, "cat.jpg", filename)
	assert.Equal(t, filepath.Join(tempDir, "cat.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg data"), data)
}

func TestSaveUploadedFileRejectsNonImage(t *testing.T) {
	svc, tempDir := acquireService(t)

	header := makeFileHeader(t, "page.html", "text/html", []byte("<html>"))
	_, _, err := svc.SaveUploadedFile(header)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Временный файл не должен появиться
	entries, readErr := os.ReadDir(tempDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSaveUploadedFileRejectsMissing(t *testing.T) {
	svc, _ := acquireService(t)

	_, _, err := svc.SaveUploadedFile(nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSaveUploadedFileStripsDirectories(t *testing.T) {
	svc, tempDir := acquireService(t)

	header := makeFileHeader(t, "../../etc/passwd.png", "image/png", []byte("png data"))
	path, filename, err := svc.SaveUploadedFile(header)
	require.NoError(t, err)

	// Имя обрезается до базового, файл остается во временной папке
	assert.Equal(t, "passwd.png", filename)
	assert.Equal(t, filepath.Join(tempDir, "passwd.png"), path)
}

func TestFetchFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("remote image bytes"))
	}))
	defer server.Close()

	svc, tempDir := acquireService(t)

	path, filename, err := svc.FetchFromURL(server.URL + "/photos/cat.jpg")
	require.NoError(t, err)

	assert.Equal(t, "cat.jpg", filename)
	assert.Equal(t, filepath.Join(tempDir, "cat.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote image bytes"), data)
}

func TestFetchFromURLRejectsNonImageContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	svc, tempDir := acquireService(t)

	_, _, err := svc.FetchFromURL(server.URL + "/page.html")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Проверка типа происходит до записи временного файла
	entries, readErr := os.ReadDir(tempDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestFetchFromURLStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	svc, _ := acquireService(t)

	_, _, err := svc.FetchFromURL(server.URL + "/missing.jpg")
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestFetchFromURLNetworkError(t *testing.T) {
	svc, _ := acquireService(t)

	// Порт закрыт, соединение не установится
	_, _, err := svc.FetchFromURL("http://127.0.0.1:1/img.jpg")
	assert.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestFetchFromURLInvalidURL(t *testing.T) {
	svc, _ := acquireService(t)

	for _, rawURL := range []string{"", "not a url", "ftp://host/file.jpg", "/relative/path.jpg"} {
		_, _, err := svc.FetchFromURL(rawURL)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, rawURL)
	}
}

func TestFetchFromURLFallbackFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer server.Close()

	svc, _ := acquireService(t)

	// URL без компонента пути
	_, filename, err := svc.FetchFromURL(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "image", filename)
}

func TestWriteTempFileLastWriteWins(t *testing.T) {
	svc, tempDir := acquireService(t)

	_, err := svc.writeTempFile("same.jpg", bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	path, err := svc.writeTempFile("same.jpg", bytes.NewReader([]byte("second")))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempDir, "same.jpg"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}
