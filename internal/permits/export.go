package permits

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/authz"
)

var exportHeader = []string{
	"permit_number", "date", "region", "location", "carrier_name", "carrier_id",
	"request_type", "vehicle_plate", "materials", "status", "closed_by", "closed_at", "created_at",
}

// ExportCSV renders the permits visible to the caller as CSV. Requires the
// export capability on top of ordinary read visibility.
func (s *Service) ExportCSV(ctx context.Context, callerID uuid.UUID, opts ListOptions) ([]byte, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequirePermitExport(caller); err != nil {
		return nil, err
	}
	filter := ListFilter{
		AllRegions:  authz.ReadsAllRegions(caller),
		Regions:     caller.Regions,
		Region:      opts.Region,
		RequestType: opts.RequestType,
		OpenOnly:    opts.OpenOnly,
		ClosedOnly:  opts.ClosedOnly,
	}
	rows, err := s.repo.ListPermits(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, p := range rows {
		status := "open"
		closedAt := ""
		if p.Closed() {
			status = "closed"
			closedAt = p.ClosedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			p.PermitNumber,
			p.Date.Format("2006-01-02"),
			p.Region,
			p.Location,
			p.CarrierName,
			p.CarrierID,
			string(p.RequestType),
			p.VehiclePlate,
			formatMaterials(p.Materials),
			status,
			p.ClosedByName,
			closedAt,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatMaterials(materials []Material) string {
	var buf bytes.Buffer
	for i, m := range materials {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(m.Description)
		if m.Quantity != 0 {
			buf.WriteString(" x")
			buf.WriteString(strconv.FormatFloat(m.Quantity, 'f', -1, 64))
		}
		if m.Unit != "" {
			buf.WriteString(" ")
			buf.WriteString(m.Unit)
		}
	}
	return buf.String()
}
