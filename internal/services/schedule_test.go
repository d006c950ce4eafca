package services

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/apierr"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

func newTestScheduleService(repo *fakeScheduleRepo, hist *fakeHistoryRepo, day int) (ScheduleService, *sessionService) {
	log := newTestLogger()
	session := NewSessionService(log, repo).(*sessionService)
	session.now = fixedDay(day)
	svc := NewScheduleService(log, session, repo, hist).(*scheduleService)
	svc.now = fixedDay(day)
	return svc, session
}

func wantAPIErr(t *testing.T, err error, status int, code string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("apierr: want=%d/%s got=%d/%s", status, code, ae.Status, ae.Code)
	}
}

func TestUpdateRowRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	err := svc.UpdateRow(0, RowUpdate{Status: ptr("Skipped")})
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_status")
}

func TestUpdateRowRejectsUnknownRow(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	err := svc.UpdateRow(99, RowUpdate{Status: ptr(types.StatusCancelled)})
	wantAPIErr(t, err, http.StatusNotFound, "row_not_found")
}

func TestUpdateRowRejectsEmptyUpdate(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	err := svc.UpdateRow(0, RowUpdate{})
	wantAPIErr(t, err, http.StatusBadRequest, "empty_update")
}

func TestUpdateRowActualStudyBounds(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	if err := svc.UpdateRow(0, RowUpdate{ActualStudy: ptr(-5)}); err == nil {
		t.Fatal("expected rejection of negative minutes")
	}
	if err := svc.UpdateRow(0, RowUpdate{ActualStudy: ptr(types.MaxDuration + 1)}); err == nil {
		t.Fatal("expected rejection of oversized minutes")
	}
	if err := svc.UpdateRow(0, RowUpdate{ActualStudy: ptr(45)}); err != nil {
		t.Fatalf("valid minutes rejected: %v", err)
	}
}

func TestUpdateRowRejectsWithoutApplyingAnything(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)

	err := svc.UpdateRow(0, RowUpdate{
		Status:      ptr(types.StatusCancelled),
		ActualStudy: ptr(999),
	})
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_actual_study")

	table, err := svc.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	row := table.Rows[0]
	if row.Status != types.StatusActive || row.ActualStudy != 0 {
		t.Fatalf("rejected update leaked into table: %+v", row)
	}
}

func TestUpdateRowAppliesAllFieldsTogether(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)

	err := svc.UpdateRow(1, RowUpdate{
		Status:        ptr(types.StatusCancelled),
		ActualStudy:   ptr(45),
		CustomSubject: ptr("AI Research"),
	})
	if err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	table, err := svc.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	row := table.Rows[1]
	if row.Status != types.StatusCancelled || row.ActualStudy != 45 || row.CustomSubject != "AI Research" {
		t.Fatalf("combined update not applied: %+v", row)
	}
}

func TestMetricsCountsCancellations(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	if err := svc.UpdateRow(1, RowUpdate{Status: ptr(types.StatusCancelled)}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	m, err := svc.Metrics()
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	want := ScheduleMetrics{TotalClasses: 3, ActiveClasses: 2, CancelledClasses: 1, FreeMinutes: 90}
	if m != want {
		t.Fatalf("metrics: want=%+v got=%+v", want, m)
	}
}

func TestSaveDailyRecordsHistory(t *testing.T) {
	repo := &fakeScheduleRepo{def: defaultTable()}
	hist := &fakeHistoryRepo{}
	svc, _ := newTestScheduleService(repo, hist, 2)

	err := svc.UpdateRow(1, RowUpdate{Status: ptr(types.StatusCancelled), ActualStudy: ptr(45)})
	if err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}

	result, err := svc.SaveDaily()
	if err != nil {
		t.Fatalf("SaveDaily: %v", err)
	}
	if result.CancelledCount != 1 {
		t.Fatalf("cancelled count: want=1 got=%d", result.CancelledCount)
	}
	if repo.daily == nil {
		t.Fatal("daily table was not persisted")
	}
	if len(hist.entries) != 1 {
		t.Fatalf("history entries: want=1 got=%d", len(hist.entries))
	}
	e := hist.entries[0]
	if e.TimeSaved != 90 || e.TimeUsed != 45 || e.Efficiency != 50 || e.ClassesCancelled != 1 {
		t.Fatalf("history entry: got=%+v", e)
	}
}

func TestSaveDailyZeroCancellations(t *testing.T) {
	hist := &fakeHistoryRepo{}
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, hist, 2)

	result, err := svc.SaveDaily()
	if err != nil {
		t.Fatalf("SaveDaily: %v", err)
	}
	if result.CancelledCount != 0 {
		t.Fatalf("cancelled count: want=0 got=%d", result.CancelledCount)
	}
	e := hist.entries[0]
	if e.TimeSaved != 0 || e.TimeUsed != 0 || e.Efficiency != 0 {
		t.Fatalf("expected zeroed entry, got %+v", e)
	}
}

func TestSaveDailyReplacesSameDayEntry(t *testing.T) {
	hist := &fakeHistoryRepo{entries: []types.HistoryEntry{
		{Date: time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC), TimeSaved: 30, TimeUsed: 30, Efficiency: 100, ClassesCancelled: 1},
	}}
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, hist, 2)

	if err := svc.UpdateRow(0, RowUpdate{Status: ptr(types.StatusCancelled)}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	if _, err := svc.SaveDaily(); err != nil {
		t.Fatalf("first SaveDaily: %v", err)
	}
	if err := svc.UpdateRow(0, RowUpdate{ActualStudy: ptr(60)}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	if _, err := svc.SaveDaily(); err != nil {
		t.Fatalf("second SaveDaily: %v", err)
	}

	if len(hist.entries) != 2 {
		t.Fatalf("history entries: want=2 got=%d", len(hist.entries))
	}
	var today types.HistoryEntry
	for _, e := range hist.entries {
		if e.Date.Day() == 2 {
			today = e
		}
	}
	if today.TimeUsed != 60 || today.Efficiency != 100 {
		t.Fatalf("same-day save did not replace: %+v", today)
	}
}

func TestUploadMasterCSVReplacesEverything(t *testing.T) {
	repo := &fakeScheduleRepo{def: defaultTable(), daily: defaultTable()}
	hist := &fakeHistoryRepo{entries: []types.HistoryEntry{{TimeSaved: 60}}}
	svc, _ := newTestScheduleService(repo, hist, 2)

	csvBody := "Day,Time,Subject,Duration\nWednesday,1:00 PM,History,50\nThursday,9:00 AM,Art,70\n"
	result, err := svc.UploadMasterCSV(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("UploadMasterCSV: %v", err)
	}
	if result.Rows != 2 || result.DurationDefaulted {
		t.Fatalf("upload result: got=%+v", result)
	}
	if repo.master == nil || len(repo.master.Rows) != 2 {
		t.Fatal("master schedule not replaced")
	}
	if repo.daily != nil {
		t.Fatal("stale daily state survived the upload")
	}
	if len(hist.entries) != 0 {
		t.Fatal("history from the old timetable survived the upload")
	}
}

func TestUploadMasterCSVDefaultsMissingDuration(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	result, err := svc.UploadMasterCSV(strings.NewReader("Day,Time,Subject\nMonday,10:00 AM,Math\n"))
	if err != nil {
		t.Fatalf("UploadMasterCSV: %v", err)
	}
	if !result.DurationDefaulted {
		t.Fatal("expected duration-defaulted flag")
	}
}

func TestUploadMasterCSVRejectsMissingColumn(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	_, err := svc.UploadMasterCSV(strings.NewReader("Day,Subject\nMonday,Math\n"))
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_upload")
}

func TestUploadMasterRowsCleansInput(t *testing.T) {
	repo := &fakeScheduleRepo{def: defaultTable()}
	svc, _ := newTestScheduleService(repo, &fakeHistoryRepo{}, 2)

	rows := []types.ScheduleRow{
		{Day: "Monday", Time: "10:00 AM", Subject: "Math", Duration: 0, Status: "Done", ActualStudy: 99, CustomSubject: "leftover"},
	}
	if _, err := svc.UploadMasterRows(rows); err != nil {
		t.Fatalf("UploadMasterRows: %v", err)
	}
	got := repo.master.Rows[0]
	if got.Duration != types.DefaultDuration || got.Status != types.StatusActive || got.ActualStudy != 0 || got.CustomSubject != "" {
		t.Fatalf("row not cleaned: %+v", got)
	}
}

func TestUploadMasterRowsRejectsEmpty(t *testing.T) {
	svc, _ := newTestScheduleService(&fakeScheduleRepo{def: defaultTable()}, &fakeHistoryRepo{}, 2)
	_, err := svc.UploadMasterRows(nil)
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_upload")
}

func TestUploadMasterRowsRejectsIncompleteRow(t *testing.T) {
	repo := &fakeScheduleRepo{def: defaultTable()}
	svc, _ := newTestScheduleService(repo, &fakeHistoryRepo{}, 2)

	rows := []types.ScheduleRow{
		{Day: "Monday", Time: "10:00 AM", Subject: "Math", Duration: 60},
		{Day: "Tuesday", Time: "9:00 AM", Duration: 60},
	}
	_, err := svc.UploadMasterRows(rows)
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_upload")
	if repo.master != nil {
		t.Fatal("rejected upload must not install a master schedule")
	}
}

func TestRestoreSample(t *testing.T) {
	repo := &fakeScheduleRepo{def: defaultTable(), master: defaultTable()}
	hist := &fakeHistoryRepo{}
	svc, _ := newTestScheduleService(repo, hist, 10)

	if err := svc.RestoreSample(); err != nil {
		t.Fatalf("RestoreSample: %v", err)
	}
	if repo.master != nil {
		t.Fatal("master schedule should be removed")
	}
	if len(hist.entries) != 5 {
		t.Fatalf("seeded history: want=5 got=%d", len(hist.entries))
	}
	if repo.daily == nil {
		t.Fatal("sample daily state missing")
	}
	row := repo.daily.Rows[0]
	if row.Status != types.StatusCancelled || row.ActualStudy != 45 || row.CustomSubject != "AI Research" {
		t.Fatalf("sample cancellation: got=%+v", row)
	}
}
