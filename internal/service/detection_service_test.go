package service

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"person-detector-go/internal/apperrors"
	"person-detector-go/internal/detector"
	"person-detector-go/internal/model"
	"person-detector-go/internal/repository"
)

// fakeDetector детектор с заранее заданным результатом
type fakeDetector struct {
	result     *detector.Result
	outputPath string
	err        error
}

func (f *fakeDetector) Detect(imagePath string, confidence float64) (*detector.Result, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.result, f.outputPath, nil
}

func (f *fakeDetector) CheckHealth() error {
	return f.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupService(t *testing.T, det PersonDetector, models ...interface{}) (*DetectionService, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))

	repo := repository.NewDetectionRepository(db)
	return NewDetectionService(repo, det, testLogger(), t.TempDir()), db
}

func twoPersonResult() *detector.Result {
	return &detector.Result{
		Boxes: []detector.Box{
			{X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.91, ClassID: 0, ClassName: "person"},
			{X1: 200, Y1: 30, X2: 280, Y2: 210, Confidence: 0.77, ClassID: 0, ClassName: "person"},
		},
		ImageWidth:  640,
		ImageHeight: 480,
	}
}

func TestProcessDetectionPersistsResult(t *testing.T) {
	det := &fakeDetector{result: twoPersonResult(), outputPath: "/static/images/out.jpg"}
	svc, db := setupService(t, det, &model.Detection{}, &model.DetectionDetail{})

	response, err := svc.ProcessDetection("/tmp/in.jpg", "cat.jpg", 0.5)
	require.NoError(t, err)

	// num_people совпадает с количеством деталей
	assert.Equal(t, 2, response.NumPeople)
	assert.Len(t, response.Details, response.NumPeople)
	assert.Equal(t, "cat.jpg", response.OriginalFilename)
	assert.Equal(t, "/static/images/out.jpg", response.ImagePath)
	assert.Equal(t, 640, response.ImageWidth)
	assert.Equal(t, 480, response.ImageHeight)
	assert.GreaterOrEqual(t, response.ProcessingTime, 0.0)

	var details int64
	require.NoError(t, db.Model(&model.DetectionDetail{}).Count(&details).Error)
	assert.EqualValues(t, 2, details)
}

func TestProcessDetectionDetectorError(t *testing.T) {
	det := &fakeDetector{err: apperrors.ErrDecode}
	svc, db := setupService(t, det, &model.Detection{}, &model.DetectionDetail{})

	_, err := svc.ProcessDetection("/tmp/in.jpg", "cat.jpg", 0.5)
	assert.ErrorIs(t, err, apperrors.ErrDecode)

	var count int64
	require.NoError(t, db.Model(&model.Detection{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessDetectionPersistenceError(t *testing.T) {
	det := &fakeDetector{result: twoPersonResult(), outputPath: "/static/images/out.jpg"}
	// Таблица деталей не создана, запись упадет и откатится
	svc, db := setupService(t, det, &model.Detection{})

	_, err := svc.ProcessDetection("/tmp/in.jpg", "cat.jpg", 0.5)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	// Частичных записей быть не должно
	var count int64
	require.NoError(t, db.Model(&model.Detection{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListDetectionsEmptyStore(t *testing.T) {
	svc, _ := setupService(t, &fakeDetector{}, &model.Detection{}, &model.DetectionDetail{})

	response, err := svc.ListDetections(1, 10, repository.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, response.Total)
	assert.Equal(t, 0, response.Pages)
	assert.Empty(t, response.Data)
}

func TestListDetectionsPagesCeiling(t *testing.T) {
	det := &fakeDetector{result: twoPersonResult(), outputPath: "/static/images/out.jpg"}
	svc, _ := setupService(t, det, &model.Detection{}, &model.DetectionDetail{})

	for i := 0; i < 5; i++ {
		_, err := svc.ProcessDetection("/tmp/in.jpg", "img.jpg", 0.5)
		require.NoError(t, err)
	}

	response, err := svc.ListDetections(1, 2, repository.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, response.Total)
	assert.Equal(t, 3, response.Pages) // ceil(5/2)
	assert.Len(t, response.Data, 2)
	// Список не грузит детали
	assert.Empty(t, response.Data[0].Details)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(1, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
	// Защита от деления на ноль
	assert.Equal(t, 1, totalPages(42, 0))
}

func TestGetDetectionLoadsDetails(t *testing.T) {
	det := &fakeDetector{result: twoPersonResult(), outputPath: "/static/images/out.jpg"}
	svc, _ := setupService(t, det, &model.Detection{}, &model.DetectionDetail{})

	created, err := svc.ProcessDetection("/tmp/in.jpg", "cat.jpg", 0.5)
	require.NoError(t, err)

	stored, err := svc.GetDetection(created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Details, stored.NumPeople)
}

func TestGetDetectionNotFound(t *testing.T) {
	svc, _ := setupService(t, &fakeDetector{}, &model.Detection{}, &model.DetectionDetail{})

	_, err := svc.GetDetection(777)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteDetectionRemovesRowAndImage(t *testing.T) {
	det := &fakeDetector{result: twoPersonResult()}
	svc, db := setupService(t, det, &model.Detection{}, &model.DetectionDetail{})

	// Аннотированное изображение должно удалиться вместе с записью
	imagePath := filepath.Join(t.TempDir(), "annotated.jpg")
	require.NoError(t, writeFile(imagePath))
	det.outputPath = imagePath

	created, err := svc.ProcessDetection("/tmp/in.jpg", "cat.jpg", 0.5)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDetection(created.ID))

	_, err = svc.GetDetection(created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoFileExists(t, imagePath)

	var details int64
	require.NoError(t, db.Model(&model.DetectionDetail{}).Count(&details).Error)
	assert.Zero(t, details)
}

func TestValidateConfidence(t *testing.T) {
	assert.NoError(t, ValidateConfidence(0.05))
	assert.NoError(t, ValidateConfidence(0.5))
	assert.NoError(t, ValidateConfidence(0.95))

	assert.ErrorIs(t, ValidateConfidence(0.04), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateConfidence(0.96), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateConfidence(-1), apperrors.ErrInvalidInput)
}

func TestCheckHealthPropagatesDetectorError(t *testing.T) {
	svc, _ := setupService(t, &fakeDetector{err: errors.New("backend down")}, &model.Detection{})
	assert.Error(t, svc.CheckHealth())

	svc, _ = setupService(t, &fakeDetector{}, &model.Detection{})
	assert.NoError(t, svc.CheckHealth())
}
