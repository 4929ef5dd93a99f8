package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/config"
	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/grading"
	"github.com/labsyncpro/labsync-api/internal/handler"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
	"github.com/labsyncpro/labsync-api/internal/router"
	"github.com/labsyncpro/labsync-api/internal/service"
)

type submissionTestUploader struct{}

func (s *submissionTestUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

func setupSubmissionApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.AssignmentDistribution{},
		&models.Submission{},
		&models.Grade{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	uploader := &submissionTestUploader{}

	classRepo := repository.NewClassRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	submissionService := service.NewSubmissionService(submissionRepo, distributionRepo, classRepo, validate, uploader, nil, 25, logger)
	gradingService := service.NewGradingService(gradeRepo, submissionRepo, grading.DefaultScale(), validate, nil, nil, logger)

	app := fiber.New()
	submissionHandler := handler.NewSubmissionHandler(submissionService, nil, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, nil, logger)

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		SubmissionHandler: submissionHandler,
		GradingHandler:    gradingHandler,
		JWTMiddleware: func(c *fiber.Ctx) error {
			if id, err := strconv.ParseUint(c.Get("X-Test-User"), 10, 64); err == nil {
				c.Locals("user_id", uint(id))
			}
			if role := c.Get("X-Test-Role"); role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
	})

	return app, db
}

func seedDistribution(t *testing.T, db *gorm.DB) (models.User, models.AssignmentDistribution) {
	t.Helper()

	class := models.Class{Name: "XI RPL 1"}
	require.NoError(t, db.Create(&class).Error)

	student := models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleStudent, ClassID: &class.ID}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{Name: "Lab Report", Status: models.AssignmentStatusPublished, CreatedBy: 1}
	require.NoError(t, db.Create(&assignment).Error)

	distribution := models.AssignmentDistribution{
		AssignmentID:  assignment.ID,
		ClassID:       class.ID,
		AudienceType:  models.AudienceClass,
		ScheduledDate: time.Now().Add(-time.Hour),
		Deadline:      time.Now().Add(3 * time.Hour),
		Status:        models.DistributionStatusAssigned,
		CreatedBy:     1,
	}
	require.NoError(t, db.Create(&distribution).Error)

	return student, distribution
}

func uploadArtifact(t *testing.T, app *fiber.App, studentID, distributionID uint, role, fileType string) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("distribution_id", strconv.FormatUint(uint64(distributionID), 10)))
	require.NoError(t, writer.WriteField("file_type", fileType))
	part, err := writer.CreateFormFile("file", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("lab results and observations"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/student/submissions/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(studentID), 10))
	req.Header.Set("X-Test-Role", role)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubmissionUploadAndGradeFlow(t *testing.T) {
	app, db := setupSubmissionApp(t)
	student, distribution := seedDistribution(t, db)

	resp := uploadArtifact(t, app, student.ID, distribution.ID, models.RoleStudent, models.FileTypeResponse)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var uploadBody struct {
		Success bool             `json:"success"`
		Data    dto.AttachResult `json:"data"`
		Message string           `json:"message"`
	}
	decodeResponse(t, resp, &uploadBody)
	require.True(t, uploadBody.Success)
	require.Equal(t, "submission uploaded", uploadBody.Message)
	require.NotZero(t, uploadBody.Data.Submission.ID)
	require.False(t, uploadBody.Data.Late)
	require.False(t, uploadBody.Data.Submission.IsComplete)
	require.NotNil(t, uploadBody.Data.Submission.ResponseFilename)

	gradePayload, err := json.Marshal(map[string]interface{}{
		"score":     87,
		"max_score": 100,
		"feedback":  "Solid analysis",
	})
	require.NoError(t, err)

	submissionID := strconv.FormatUint(uint64(uploadBody.Data.Submission.ID), 10)
	gradeReq := httptest.NewRequest("PUT", "/api/v1/submissions/"+submissionID+"/grade", bytes.NewReader(gradePayload))
	gradeReq.Header.Set("Content-Type", "application/json")
	gradeReq.Header.Set("X-Test-User", "2")
	gradeReq.Header.Set("X-Test-Role", models.RoleInstructor)

	gradeResp, err := app.Test(gradeReq, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, gradeResp.StatusCode)

	var gradeBody struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, gradeResp, &gradeBody)
	require.True(t, gradeBody.Success)
	require.Equal(t, "submission graded", gradeBody.Message)
	require.NotNil(t, gradeBody.Data.Grade)
	require.Equal(t, 87.0, gradeBody.Data.Grade.Score)
	require.Equal(t, "B+", gradeBody.Data.Grade.GradeLetter)
	require.True(t, gradeBody.Data.IsLocked)

	// The first grade locks the submission, so a follow-up upload must bounce.
	lockedResp := uploadArtifact(t, app, student.ID, distribution.ID, models.RoleStudent, models.FileTypeOutputTest)
	require.Equal(t, fiber.StatusConflict, lockedResp.StatusCode)

	var lockedBody struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, lockedResp, &lockedBody)
	require.False(t, lockedBody.Success)
	require.Equal(t, "submission is locked", lockedBody.Message)
}

func TestSubmissionUploadRequiresStudentRole(t *testing.T) {
	app, db := setupSubmissionApp(t)
	student, distribution := seedDistribution(t, db)

	resp := uploadArtifact(t, app, student.ID, distribution.ID, models.RoleInstructor, models.FileTypeResponse)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
