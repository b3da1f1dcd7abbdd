package logic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blues/livepay/internal/model"
)

func fullResolution() Resolution {
	return Resolution{
		Split: CommissionSplit{
			PlatformBps:  4000,
			StudioBps:    1200,
			PerformerBps: 4560,
			ReferralBps:  240,
		},
		StudioId:   "st1",
		ReferrerId: "r1",
	}
}

func TestRecordComputesNets(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)

	event := tipEvent("tx1")
	record, err := ledger.Record(nil, event, fullResolution())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if record.NetToStudio != 12 {
		t.Errorf("net_to_studio = %d, want 12", record.NetToStudio)
	}
	if record.NetToPerformer != 45 {
		t.Errorf("net_to_performer = %d, want 45", record.NetToPerformer)
	}
	if record.NetToReferrer != 2 {
		t.Errorf("net_to_referrer = %d, want 2", record.NetToReferrer)
	}
	if record.NetToPlatform != 41 {
		t.Errorf("net_to_platform = %d, want 41", record.NetToPlatform)
	}
	if record.ConversionRate != 5 {
		t.Errorf("conversion_rate = %d, want 5", record.ConversionRate)
	}
	if record.PayoutStatus != string(model.PayoutStatusPending) {
		t.Errorf("payout_status = %q, want pending", record.PayoutStatus)
	}
}

// 整数取整的余数归平台，四项净额之和恒等于毛额。
func TestRecordConservation(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)

	for i, gross := range []int64{1, 3, 99, 100, 101, 12345} {
		event := tipEvent(fmt.Sprintf("bulk_tx%d", i))
		event.GrossAmount = gross
		record, err := ledger.Record(nil, event, fullResolution())
		if err != nil {
			t.Fatalf("Record(gross=%d) error = %v", gross, err)
		}
		sum := record.NetToPlatform + record.NetToStudio + record.NetToPerformer + record.NetToReferrer
		if sum != gross {
			t.Errorf("gross=%d: nets sum to %d", gross, sum)
		}
	}
}

func TestRecordDuplicate(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)

	if _, err := ledger.Record(nil, tipEvent("tx1"), fullResolution()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := ledger.Record(nil, tipEvent("tx1"), fullResolution()); !errors.Is(err, ErrDuplicateEvent) {
		t.Errorf("Record() error = %v, want ErrDuplicateEvent", err)
	}

	exists, err := ledger.HasRecord("tx1")
	if err != nil || !exists {
		t.Errorf("HasRecord(tx1) = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = ledger.HasRecord("tx2")
	if err != nil || exists {
		t.Errorf("HasRecord(tx2) = (%v, %v), want (false, nil)", exists, err)
	}
}

func seedLedger(t *testing.T, ledger *LedgerLogic) {
	t.Helper()
	for i := 0; i < 5; i++ {
		event := tipEvent(fmt.Sprintf("p1_tx%d", i))
		if _, err := ledger.Record(nil, event, fullResolution()); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	other := tipEvent("p2_tx0")
	other.PayeeId = "p2"
	if _, err := ledger.Record(nil, other, Resolution{Split: CommissionSplit{PlatformBps: 4000, PerformerBps: 6000}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}

func TestGetEarningsFilterAndPagination(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)
	seedLedger(t, ledger)

	records, total, err := ledger.GetEarnings(EarningFilter{PerformerId: "p1"}, 1, 2)
	if err != nil {
		t.Fatalf("GetEarnings() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}

	records, _, err = ledger.GetEarnings(EarningFilter{PerformerId: "p1"}, 3, 2)
	if err != nil {
		t.Fatalf("GetEarnings() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("last page len = %d, want 1", len(records))
	}

	records, total, err = ledger.GetEarnings(EarningFilter{StudioId: "st1"}, 1, 10)
	if err != nil {
		t.Fatalf("GetEarnings() error = %v", err)
	}
	if total != 5 || len(records) != 5 {
		t.Errorf("studio filter: total=%d len=%d, want 5/5", total, len(records))
	}

	_, total, err = ledger.GetEarnings(EarningFilter{PerformerId: "nobody"}, 1, 10)
	if err != nil {
		t.Fatalf("GetEarnings() error = %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestGetEarningStats(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)
	seedLedger(t, ledger)

	stats, err := ledger.GetEarningStats(EarningFilter{PerformerId: "p1"})
	if err != nil {
		t.Fatalf("GetEarningStats() error = %v", err)
	}

	if got := stats["total_records"].(int64); got != 5 {
		t.Errorf("total_records = %d, want 5", got)
	}
	if got := stats["total_gross"].(int64); got != 500 {
		t.Errorf("total_gross = %d, want 500", got)
	}
	if got := stats["total_performer"].(int64); got != 225 {
		t.Errorf("total_performer = %d, want 225", got)
	}
	if got := stats["total_studio"].(int64); got != 60 {
		t.Errorf("total_studio = %d, want 60", got)
	}
	if got := stats["total_referrer"].(int64); got != 10 {
		t.Errorf("total_referrer = %d, want 10", got)
	}
	if got := stats["total_platform"].(int64); got != 205 {
		t.Errorf("total_platform = %d, want 205", got)
	}
}

func TestUpdatePayoutStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerLogic(db, 5)

	record, err := ledger.Record(nil, tipEvent("tx1"), fullResolution())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// pending -> done 不允许越级
	if err := ledger.UpdatePayoutStatus(record.Id, string(model.PayoutStatusDone)); err == nil {
		t.Error("pending -> done must be rejected")
	}

	if err := ledger.UpdatePayoutStatus(record.Id, string(model.PayoutStatusApproved)); err != nil {
		t.Fatalf("pending -> approved error = %v", err)
	}
	if err := ledger.UpdatePayoutStatus(record.Id, string(model.PayoutStatusRejected)); err == nil {
		t.Error("approved -> rejected must be rejected")
	}
	if err := ledger.UpdatePayoutStatus(record.Id, string(model.PayoutStatusDone)); err != nil {
		t.Fatalf("approved -> done error = %v", err)
	}

	// done 为终态
	if err := ledger.UpdatePayoutStatus(record.Id, string(model.PayoutStatusPending)); err == nil {
		t.Error("done -> pending must be rejected")
	}

	if err := ledger.UpdatePayoutStatus(9999, string(model.PayoutStatusApproved)); err == nil {
		t.Error("missing record must be rejected")
	}
}
