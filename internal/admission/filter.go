package admission

import (
	"log/slog"

	"github.com/croplands/parcel-recon/constants"
	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
)

// Admit reports whether a raw parcel belongs to an allowed jurisdiction.
// Rejection is an ordinary result, not an error: the caller drops the record
// with no further processing.
func Admit(raw entity.RawParcel) bool {
	return constants.IsAllowed(raw.JurisdictionCode)
}

// AdmitLogged is Admit plus a diagnostic note on rejection.
func AdmitLogged(raw entity.RawParcel, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if Admit(raw) {
		return true
	}
	logger.Debug("admission.rejected",
		"parcel_id", raw.ID,
		"jurisdiction_code", raw.JurisdictionCode,
		"reason", common.ErrNotAdmitted,
	)
	return false
}
