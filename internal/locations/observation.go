package locations

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"tagtrack/internal/canonical"
	"tagtrack/internal/store"
)

// Observation is one validated-or-not tag sighting.
type Observation struct {
	SubjectTag        string    `validate:"required,max=20"`
	Latitude          float64   `validate:"gte=-90,lte=90"`
	Longitude         float64   `validate:"gte=-180,lte=180"`
	Accuracy          float64   `validate:"gte=0"`
	Timestamp         time.Time
	BatteryStatus     float64   `validate:"integral,gte=0,lte=4"`
	IsInaccurate      bool
	TimestampFallback bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func observationValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("integral", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() != reflect.Float64 {
				return false
			}
			f := field.Float()
			return f == math.Trunc(f)
		})
	})
	return validate
}

// Hash fingerprints the identity tuple (tag, unix ms, latitude, longitude, accuracy).
func (o Observation) Hash() string {
	hash, err := canonical.Fingerprint([]any{
		o.SubjectTag,
		o.Timestamp.UnixMilli(),
		o.Latitude,
		o.Longitude,
		o.Accuracy,
	})
	if err != nil {
		// Strings and finite floats always encode.
		panic(fmt.Sprintf("fingerprint observation: %v", err))
	}
	return hash
}

// Validate checks the stored-record range constraints.
func (o Observation) Validate() error {
	err := observationValidator().Struct(o)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid observation: %s", strings.Join(parts, ", "))
	}
	return fmt.Errorf("invalid observation: %w", err)
}

// Record converts the observation into a storable record.
func (o Observation) Record(importID string) *store.LocationRecord {
	return &store.LocationRecord{
		SubjectTag:    o.SubjectTag,
		Latitude:      o.Latitude,
		Longitude:     o.Longitude,
		Accuracy:      o.Accuracy,
		ObservedAt:    o.Timestamp,
		BatteryStatus: int(o.BatteryStatus),
		IsInaccurate:  o.IsInaccurate,
		LocationHash:  o.Hash(),
		ImportID:      importID,
	}
}
