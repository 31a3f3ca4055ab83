package models

import "time"

// DispatchOutcome is the terminal state of one pipeline run.
type DispatchOutcome string

const (
	OutcomeRecorded DispatchOutcome = "RECORDED"
	OutcomeRejected DispatchOutcome = "REJECTED"
	OutcomeFailed   DispatchOutcome = "FAILED"
)

// RejectReason identifies the safety rule that stopped a recommendation.
type RejectReason string

const (
	RejectNone                    RejectReason = ""
	RejectMalformedRecommendation RejectReason = "MalformedRecommendation"
	RejectHoldAction              RejectReason = "HoldAction"
	RejectLowConfidence           RejectReason = "LowConfidence"
	RejectOutsideTradingHours     RejectReason = "OutsideTradingHours"
	RejectDailyLimitExceeded      RejectReason = "DailyLimitExceeded"
	RejectNoPositionToSell        RejectReason = "NoPositionToSell"
	RejectZeroQuantity            RejectReason = "ZeroQuantity"
	RejectNoFundsData             RejectReason = "NoFundsData"
)

// TradeRecord is an append-only audit entry, produced once per dispatch
// attempt regardless of outcome. Never mutated or deleted by this core.
type TradeRecord struct {
	Timestamp  time.Time
	Symbol     string
	SecurityID string
	Side       OrderSide
	Quantity   int
	Price      float64
	OrderID    string
	Outcome    DispatchOutcome
	Reason     RejectReason
	Detail     string
}
