package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"siteaudit/internal/modules/audit/domain"
	auditout "siteaudit/internal/modules/audit/port/out"
	storagedto "siteaudit/internal/modules/storage/dto"
	storagein "siteaudit/internal/modules/storage/port/in"
	apperrors "siteaudit/internal/platform/errors"
)

// Logical record names. They are stable across releases so a restart can
// rehydrate the session.
const (
	keyCapturedImages = "capturedImages"
	keyInspectorName  = "inspectorName"
	keySignature      = "signature"
	keyReportStarted  = "reportStarted"
)

type StorageSessionStore struct {
	store storagein.Usecase
}

func NewStorageSessionStore(store storagein.Usecase) auditout.SessionStore {
	return &StorageSessionStore{store: store}
}

func (s *StorageSessionStore) Load(ctx context.Context) (domain.ReportSession, error) {
	session := domain.NewSession()

	raw, ok, err := s.get(ctx, keyCapturedImages)
	if err != nil {
		return domain.ReportSession{}, err
	}
	if ok {
		if err := json.Unmarshal(raw, &session.Images); err != nil {
			return domain.ReportSession{}, fmt.Errorf("decode %s: %w", keyCapturedImages, err)
		}
	}

	raw, ok, err = s.get(ctx, keyInspectorName)
	if err != nil {
		return domain.ReportSession{}, err
	}
	if ok {
		session.InspectorName = string(raw)
	}

	raw, ok, err = s.get(ctx, keySignature)
	if err != nil {
		return domain.ReportSession{}, err
	}
	if ok && len(raw) > 0 {
		session.Signature = raw
	}

	raw, ok, err = s.get(ctx, keyReportStarted)
	if err != nil {
		return domain.ReportSession{}, err
	}
	if ok {
		flag, err := decodeStarted(raw)
		if err != nil {
			return domain.ReportSession{}, fmt.Errorf("decode %s: %w", keyReportStarted, err)
		}
		session.Started = flag.Started
		if flag.Date != "" {
			if session.ReportDate, err = domain.ParseDate(flag.Date); err != nil {
				return domain.ReportSession{}, fmt.Errorf("decode %s: %w", keyReportStarted, err)
			}
		}
	}
	return session, nil
}

// startedRecord is the reportStarted value. The report date rides along so
// a resumed report keeps the date it was started or edited with.
type startedRecord struct {
	Started bool   `json:"started"`
	Date    string `json:"date,omitempty"`
}

// decodeStarted also accepts the bare boolean written by older releases.
func decodeStarted(raw []byte) (startedRecord, error) {
	if started, err := strconv.ParseBool(string(raw)); err == nil {
		return startedRecord{Started: started}, nil
	}
	var rec startedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return startedRecord{}, err
	}
	return rec, nil
}

func (s *StorageSessionStore) SaveImages(ctx context.Context, images []domain.CapturedImage) error {
	if images == nil {
		images = []domain.CapturedImage{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyCapturedImages, err)
	}
	return s.put(ctx, keyCapturedImages, raw)
}

func (s *StorageSessionStore) SaveInspector(ctx context.Context, name string) error {
	return s.put(ctx, keyInspectorName, []byte(name))
}

func (s *StorageSessionStore) SaveSignature(ctx context.Context, raster []byte) error {
	if len(raster) == 0 {
		return s.store.Delete(ctx, keySignature)
	}
	return s.put(ctx, keySignature, raster)
}

func (s *StorageSessionStore) SaveStarted(ctx context.Context, started bool, date domain.Date) error {
	raw, err := json.Marshal(startedRecord{Started: started, Date: date.String()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyReportStarted, err)
	}
	return s.put(ctx, keyReportStarted, raw)
}

func (s *StorageSessionStore) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *StorageSessionStore) put(ctx context.Context, key string, value []byte) error {
	_, err := s.store.Put(ctx, storagedto.PutInput{Key: key, Value: value})
	return err
}

func (s *StorageSessionStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrAbsent) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return out.Value, true, nil
}
