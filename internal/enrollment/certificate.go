package enrollment

import (
	"context"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/certificate"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// Certificate is a rendered document ready for download.
type Certificate struct {
	Data        []byte
	Filename    string
	ContentType string
}

// CertificateStatus is only available to approved students.
func (e *Engine) CertificateStatus(ctx context.Context, who auth.Identity, courseID uint) (Status, error) {
	db := e.db.WithContext(ctx)
	if _, err := storage.GetCourse(db, courseID); err != nil {
		return Status{}, err
	}
	if !who.IsAuthenticated() {
		return Status{}, apperr.NotFound("anonymous caller")
	}
	enrollment, err := storage.FindEnrollment(db, who.UserID, courseID)
	if err != nil {
		return Status{}, err
	}
	if !enrollment.Approved {
		return Status{}, apperr.NotFound("enrollment is not approved")
	}
	return e.Status(ctx, *enrollment)
}

// CertificateFor renders the PDF certificate once the course is finished.
func (e *Engine) CertificateFor(ctx context.Context, who auth.Identity, courseID uint) (Certificate, error) {
	user, course, status, err := e.certificateInputs(ctx, who, courseID)
	if err != nil {
		return Certificate{}, err
	}

	pdf, err := e.certs.Generate(*user, *course, status.Enrollment)
	if err != nil {
		return Certificate{}, err
	}
	if err := storage.LogActivity(e.db.WithContext(ctx), who.UserID, models.ActionCertificateView, map[string]interface{}{
		"course_id":      courseID,
		"certificate_id": status.Enrollment.CertificateID,
	}); err != nil {
		e.log.Warn("certificate activity not recorded", "user_id", who.UserID, "error", err)
	}
	return Certificate{
		Data:        pdf,
		Filename:    certificate.Filename(course.Title),
		ContentType: "application/pdf",
	}, nil
}

// CertificatePreview renders the same certificate as a PNG image.
func (e *Engine) CertificatePreview(ctx context.Context, who auth.Identity, courseID uint) (Certificate, error) {
	user, course, status, err := e.certificateInputs(ctx, who, courseID)
	if err != nil {
		return Certificate{}, err
	}
	img, err := e.certs.Preview(*user, *course, status.Enrollment)
	if err != nil {
		return Certificate{}, err
	}
	return Certificate{
		Data:        img,
		Filename:    "certificate.png",
		ContentType: "image/png",
	}, nil
}

func (e *Engine) certificateInputs(ctx context.Context, who auth.Identity, courseID uint) (*models.User, *models.Course, Status, error) {
	status, err := e.CertificateStatus(ctx, who, courseID)
	if err != nil {
		return nil, nil, Status{}, err
	}
	if !status.CanDownloadCertificate() {
		return nil, nil, Status{}, certificate.ErrNotCompleted
	}

	db := e.db.WithContext(ctx)
	user, err := storage.GetUser(db, who.UserID)
	if err != nil {
		return nil, nil, Status{}, err
	}
	course, err := storage.GetCourse(db, courseID)
	if err != nil {
		return nil, nil, Status{}, err
	}
	return user, course, status, nil
}
