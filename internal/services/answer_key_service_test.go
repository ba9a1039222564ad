package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/cache"
	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	answerKeyTTL    = 10 * time.Minute
	answerKeyHeader = "exercise_id,page_id,question_type,question_number,question,answer_text,is_correct,correct_answer_text,option_id\n"
	answerKeyCSV    = answerKeyHeader +
		"geo,p3,fill_blank_question,1,Capital of Italy?,,,Rome,\n" +
		"geo,p1,multiple_choice_checkbox,1,Capitals?,Paris,true,,o1\n"
)

type answerKeyFixture struct {
	repo      *MockRepository
	reader    *MockAnswerKeyReader
	cache     *MockCacheService
	publisher *events.MockEventPublisher
	service   AnswerKeyService
}

func newAnswerKeyFixture() *answerKeyFixture {
	logger := discardLogger()
	f := &answerKeyFixture{
		repo:      newMockRepository(),
		reader:    new(MockAnswerKeyReader),
		cache:     new(MockCacheService),
		publisher: events.NewMockEventPublisher(logger),
	}
	keyCache := cache.NewAnswerKeyCache(f.cache, answerKeyTTL, logger)
	f.service = NewAnswerKeyService(f.repo, f.reader, keyCache, f.publisher, logger, validator.New())
	return f
}

func (f *answerKeyFixture) assertExpectations(t *testing.T) {
	f.repo.homework.AssertExpectations(t)
	f.reader.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func capitalsHomework() *models.Homework {
	return &models.Homework{
		ID:           9,
		CenterID:     1,
		Title:        "Capitals",
		ExerciseData: datatypes.JSON(testExerciseData),
	}
}

func expectedPageMap() models.PageMap {
	return models.PageMap{
		0: {ExerciseID: "geo", PageID: "p1"},
		1: {ExerciseID: "geo", PageID: "p2"},
		2: {ExerciseID: "geo", PageID: "p3"},
	}
}

func TestImportAnswerKey_CSV(t *testing.T) {
	f := newAnswerKeyFixture()

	f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
	f.repo.homework.On("UpdateAnswerKey", mock.Anything, uint(9), answerKeyCSV, expectedPageMap()).Return(nil)
	f.cache.On("Delete", mock.Anything, "homework:grading:answer_key:9").Return(nil)

	result, err := f.service.ImportAnswerKey(context.Background(), teacherActor, &ImportAnswerKeyRequest{
		HomeworkID: 9,
		Format:     models.FormatCSV,
		Content:    []byte(answerKeyCSV),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, result.Status)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.KeyCount)
	assert.Zero(t, result.ErrorCount)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAnswerKeyImported, published[0].Type)
	imported := published[0].Data.(events.AnswerKeyImportedEvent)
	assert.Equal(t, teacherActor.ID, imported.ImportedBy)
	assert.Equal(t, 2, imported.KeyCount)

	f.assertExpectations(t)
}

func TestImportAnswerKey_XLSXStoredAsCSV(t *testing.T) {
	f := newAnswerKeyFixture()

	wb := excelize.NewFile()
	rows := [][]interface{}{
		{"exercise_id", "page_id", "question_type", "question_number", "correct_answer_text"},
		{"geo", "p3", "fill_blank_question", 1, "Rome"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	var storedCSV string
	f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
	f.repo.homework.On("UpdateAnswerKey", mock.Anything, uint(9), mock.AnythingOfType("string"), expectedPageMap()).
		Run(func(args mock.Arguments) { storedCSV = args.String(2) }).
		Return(nil)
	f.cache.On("Delete", mock.Anything, "homework:grading:answer_key:9").Return(nil)

	result, err := f.service.ImportAnswerKey(context.Background(), teacherActor, &ImportAnswerKeyRequest{
		HomeworkID: 9,
		Format:     models.FormatXLSX,
		Content:    buf.Bytes(),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, result.Status)
	assert.Equal(t, 1, result.KeyCount)

	keys := grading.ExtractCorrectAnswers(storedCSV)
	require.Contains(t, keys, "geo_p3_fill_blank_question_1")
	assert.Equal(t, []string{"Rome"}, keys["geo_p3_fill_blank_question_1"].CorrectAnswerText)

	f.assertExpectations(t)
}

func TestImportAnswerKey_NoUsableKeys(t *testing.T) {
	f := newAnswerKeyFixture()
	f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)

	result, err := f.service.ImportAnswerKey(context.Background(), teacherActor, &ImportAnswerKeyRequest{
		HomeworkID: 9,
		Format:     models.FormatCSV,
		Content:    []byte("exercise_id,page_id\ngeo,p1\n"),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ImportValidationFailed, result.Status)
	assert.Zero(t, result.KeyCount)
	assert.Equal(t, 2, result.ErrorCount, "question_type and question_number are missing")
	assert.Equal(t, models.CodeMissingColumn, result.Errors[0].Code)

	f.repo.homework.AssertNotCalled(t, "UpdateAnswerKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.GetPublishedEvents())
	f.assertExpectations(t)
}

func TestImportAnswerKey_Rejections(t *testing.T) {
	validRequest := &ImportAnswerKeyRequest{HomeworkID: 9, Format: models.FormatCSV, Content: []byte(answerKeyCSV)}

	tests := []struct {
		name  string
		actor *models.Actor
		req   *ImportAnswerKeyRequest
		setup func(f *answerKeyFixture)
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing identity",
			actor: nil,
			req:   validRequest,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrIdentityRequired) },
		},
		{
			name:  "unsupported format",
			actor: teacherActor,
			req:   &ImportAnswerKeyRequest{HomeworkID: 9, Format: "pdf", Content: []byte("x")},
			check: func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:  "empty content",
			actor: teacherActor,
			req:   &ImportAnswerKeyRequest{HomeworkID: 9, Format: models.FormatCSV},
			check: func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:  "homework not found",
			actor: teacherActor,
			req:   validRequest,
			setup: func(f *answerKeyFixture) {
				f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrHomeworkNotFound) },
		},
		{
			name:  "student",
			actor: studentActor,
			req:   validRequest,
			setup: func(f *answerKeyFixture) {
				f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInsufficientPermissions) },
		},
		{
			name:  "teacher of another center",
			actor: &models.Actor{ID: 21, Role: models.RoleTeacher, CenterID: 2},
			req:   validRequest,
			setup: func(f *answerKeyFixture) {
				f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
			},
			check: func(t *testing.T, err error) {
				var permErr *PermissionError
				require.ErrorAs(t, err, &permErr)
				assert.Equal(t, "import_answer_key", permErr.Action)
			},
		},
		{
			name:  "corrupt workbook",
			actor: teacherActor,
			req:   &ImportAnswerKeyRequest{HomeworkID: 9, Format: models.FormatXLSX, Content: []byte("not a zip")},
			setup: func(f *answerKeyFixture) {
				f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrValidationFailed) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnswerKeyFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			result, err := f.service.ImportAnswerKey(context.Background(), tt.actor, tt.req)

			assert.Nil(t, result)
			require.Error(t, err)
			tt.check(t, err)
			f.assertExpectations(t)
		})
	}
}

func TestImportAnswerKey_CacheInvalidationFailureIsLogged(t *testing.T) {
	f := newAnswerKeyFixture()

	f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
	f.repo.homework.On("UpdateAnswerKey", mock.Anything, uint(9), answerKeyCSV, expectedPageMap()).Return(nil)
	f.cache.On("Delete", mock.Anything, "homework:grading:answer_key:9").Return(errors.New("redis: connection refused"))

	result, err := f.service.ImportAnswerKey(context.Background(), teacherActor, &ImportAnswerKeyRequest{
		HomeworkID: 9,
		Format:     models.FormatCSV,
		Content:    []byte(answerKeyCSV),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, result.Status)
	f.assertExpectations(t)
}

func TestLoadKeySource_CacheHit(t *testing.T) {
	f := newAnswerKeyFixture()
	cached := &grading.KeySource{
		AnswerKey: grading.ExtractCorrectAnswers(answerKeyCSV),
		PageMap:   expectedPageMap(),
	}
	f.cache.On("Get", mock.Anything, "homework:grading:answer_key:9", mock.AnythingOfType("*grading.KeySource")).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*grading.KeySource) = *cached
		}).
		Return(nil)

	source, err := f.service.LoadKeySource(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, cached.PageMap, source.PageMap)
	assert.Len(t, source.AnswerKey, 2)
	f.reader.AssertNotCalled(t, "GetAnswerKeyRecord", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestLoadKeySource_CacheMissReadsDatabase(t *testing.T) {
	f := newAnswerKeyFixture()
	f.cache.On("Get", mock.Anything, "homework:grading:answer_key:9", mock.Anything).Return(cache.ErrCacheMiss)
	f.reader.On("GetAnswerKeyRecord", mock.Anything, uint(9)).Return(&repositories.AnswerKeyRecord{
		HomeworkID:   9,
		ExerciseData: testExerciseData,
		AnswerKeyCSV: answerKeyCSV,
	}, nil)
	f.cache.On("Set", mock.Anything, "homework:grading:answer_key:9", mock.AnythingOfType("*grading.KeySource"), answerKeyTTL).Return(nil)

	source, err := f.service.LoadKeySource(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, expectedPageMap(), source.PageMap, "page map derived from exercise data when not stored")
	require.Contains(t, source.AnswerKey, "geo_p1_multiple_choice_checkbox_1")
	assert.Equal(t, "o1", source.AnswerKey["geo_p1_multiple_choice_checkbox_1"].CorrectOptions[0].ID)
	f.assertExpectations(t)
}

func TestLoadKeySource_StoredPageMapWins(t *testing.T) {
	f := newAnswerKeyFixture()
	stored := models.PageMap{0: {ExerciseID: "reading", PageID: "1"}}
	f.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis: i/o timeout"))
	f.reader.On("GetAnswerKeyRecord", mock.Anything, uint(9)).Return(&repositories.AnswerKeyRecord{
		HomeworkID:   9,
		ExerciseData: testExerciseData,
		AnswerKeyCSV: answerKeyCSV,
		PageMap:      stored,
	}, nil)
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, answerKeyTTL).Return(errors.New("redis: i/o timeout"))

	source, err := f.service.LoadKeySource(context.Background(), 9)

	require.NoError(t, err, "cache failures never fail loading")
	assert.Equal(t, stored, source.PageMap)
	f.assertExpectations(t)
}

func TestLoadKeySource_HomeworkMissing(t *testing.T) {
	f := newAnswerKeyFixture()
	f.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(cache.ErrCacheMiss)
	f.reader.On("GetAnswerKeyRecord", mock.Anything, uint(9)).Return(nil, sql.ErrNoRows)

	source, err := f.service.LoadKeySource(context.Background(), 9)

	assert.Nil(t, source)
	assert.ErrorIs(t, err, ErrHomeworkNotFound)
	f.assertExpectations(t)
}

func TestGetAnswerKey(t *testing.T) {
	t.Run("staff", func(t *testing.T) {
		f := newAnswerKeyFixture()
		f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
		f.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(cache.ErrCacheMiss)
		f.reader.On("GetAnswerKeyRecord", mock.Anything, uint(9)).Return(&repositories.AnswerKeyRecord{HomeworkID: 9, AnswerKeyCSV: answerKeyCSV}, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, answerKeyTTL).Return(nil)

		source, err := f.service.GetAnswerKey(context.Background(), &models.Actor{ID: 1, Role: models.RoleAdmin, CenterID: 1}, 9)

		require.NoError(t, err)
		assert.Len(t, source.AnswerKey, 2)
		f.assertExpectations(t)
	})

	t.Run("no key imported", func(t *testing.T) {
		f := newAnswerKeyFixture()
		f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)
		f.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(cache.ErrCacheMiss)
		f.reader.On("GetAnswerKeyRecord", mock.Anything, uint(9)).Return(&repositories.AnswerKeyRecord{HomeworkID: 9}, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, answerKeyTTL).Return(nil)

		_, err := f.service.GetAnswerKey(context.Background(), teacherActor, 9)

		assert.ErrorIs(t, err, ErrAnswerKeyNotAvailable)
	})

	t.Run("parent", func(t *testing.T) {
		f := newAnswerKeyFixture()
		f.repo.homework.On("GetByID", mock.Anything, uint(9)).Return(capitalsHomework(), nil)

		_, err := f.service.GetAnswerKey(context.Background(), parentActor, 9)

		assert.ErrorIs(t, err, ErrInsufficientPermissions)
	})
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     models.AnswerKeyFormat
		wantErr  bool
	}{
		{"answers.csv", models.FormatCSV, false},
		{"Answers.XLSX", models.FormatXLSX, false},
		{"answers.xls", "", true},
		{"answers", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := FormatFromFilename(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
