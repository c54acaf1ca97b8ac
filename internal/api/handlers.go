package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/observability"
	"github.com/danmuck/nexus/internal/scan"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/gin-gonic/gin"
)

type barcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

type qrRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

type stepScanRequest struct {
	QRCode     string `json:"qr_code" binding:"required"`
	ScanAction string `json:"scan_action" binding:"required"`
	Notes      string `json:"notes"`
}

type scanResponse struct {
	ScanSuccessful bool               `json:"scan_successful"`
	Type           codes.Family       `json:"type"`
	Traveler       travelers.Traveler `json:"traveler"`
	Code           codes.Classified   `json:"code"`
	Step           *scan.StepInfo     `json:"step_info,omitempty"`
}

func newScanResponse(res scan.Resolution) scanResponse {
	return scanResponse{
		ScanSuccessful: true,
		Type:           res.Code.Family,
		Traveler:       res.Traveler,
		Code:           res.Code,
		Step:           res.Step,
	}
}

// respondScan writes a resolution or its error. family names the code family
// the route expects and is logged when the payload never resolved.
func respondScan(c *gin.Context, family codes.Family, res scan.Resolution, err error) {
	if err != nil {
		observability.TagScan(c, string(family))
		writeError(c, err)
		return
	}
	observability.TagScan(c, string(res.Code.Family))
	c.JSON(http.StatusOK, newScanResponse(res))
}

func (s *Server) travelerCodes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := s.labels.TravelerCodes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) travelerLabel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pdf, name, err := s.labels.TravelerLabel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) travelerStepQRs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	includeManual := true
	if raw := c.Query("include_manual"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalidRequest(c, "include_manual must be a boolean")
			return
		}
		includeManual = v
	}
	out, err := s.labels.StepQRs(c.Request.Context(), id, includeManual)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) stepQR(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := s.labels.StepQR(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) scanBarcode(c *gin.Context) {
	var req barcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "barcode is required")
		return
	}
	res, err := s.scans.ResolveBarcode(c.Request.Context(), req.Barcode)
	respondScan(c, codes.FamilyBarcode, res, err)
}

func (s *Server) scanQR(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "qr_code is required")
		return
	}
	res, err := s.scans.ResolveQR(c.Request.Context(), req.QRCode)
	respondScan(c, "", res, err)
}

func (s *Server) scanStepQR(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "qr_code is required")
		return
	}
	res, err := s.scans.ResolveStepQR(c.Request.Context(), req.QRCode)
	respondScan(c, codes.FamilyStep, res, err)
}

func (s *Server) scanStep(c *gin.Context) {
	var req stepScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "qr_code and scan_action are required")
		return
	}
	event, res, err := s.scans.ScanStep(c.Request.Context(), scan.StepScan{
		Code:      req.QRCode,
		Action:    travelers.ScanAction(req.ScanAction),
		Notes:     req.Notes,
		ScannedBy: strings.TrimSpace(c.GetHeader(UserHeader)),
	})
	observability.TagScan(c, string(codes.FamilyStep))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"scan_id":          event.ID,
		"traveler_id":      event.TravelerID,
		"job_number":       event.JobNumber,
		"step_id":          event.StepID,
		"step_type":        event.StepType,
		"work_center":      event.WorkCenter,
		"scan_action":      event.Action,
		"scanned_at":       event.ScannedAt,
		"scanned_by":       event.ScannedBy,
		"duration_minutes": event.DurationMinutes,
		"step_info":        res.Step,
	})
}

func (s *Server) search(c *gin.Context) {
	text := c.Query("code")
	if strings.TrimSpace(text) == "" {
		invalidRequest(c, "code is required")
		return
	}
	res, err := s.scans.Search(c.Request.Context(), text)
	respondScan(c, "", res, err)
}

func (s *Server) scanHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stepType := c.DefaultQuery("step_type", string(codes.StepProcess))
	out, err := s.scans.StepHistory(c.Request.Context(), id, stepType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) timeSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := s.scans.TravelerTimeSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		writeError(c, errInvalidID)
		return 0, false
	}
	return id, true
}
