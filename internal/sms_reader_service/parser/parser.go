// Package parser extracts provider, amount and transaction id from payment SMS.
// All functions are pure; a miss is an empty string, never an error.
package parser

import "github.com/aradsms/smsreader/internal/sms_reader_service/domain"

const number = `([\d,]+\.?\d*)`

// ws matches one whitespace rune the way SMS gateways emit it: ASCII space and
// controls, vertical tab, every Unicode separator (NBSP included) and the BOM.
const ws = `[\s\v\p{Z}\x{FEFF}]`

var providerRules = func() RuleSet {
	rules := make(RuleSet, 0, len(domain.KnownProviders))
	for _, p := range domain.KnownProviders {
		rules = append(rules, Rule{Name: string(p), Matcher: Contains(string(p), string(p))})
	}
	return rules
}()

// AmountRules are tried in this order; prefix forms before suffix forms.
var AmountRules = RuleSet{
	{Name: "tk_prefix", Matcher: Pattern(`(?i)Tk` + ws + `*\.?` + ws + `*` + number), Normalize: stripThousands},
	{Name: "bdt_prefix", Matcher: Pattern(`(?i)BDT` + ws + `*\.?` + ws + `*` + number), Normalize: stripThousands},
	{Name: "taka_prefix", Matcher: Pattern(`(?i)Taka` + ws + `*\.?` + ws + `*` + number), Normalize: stripThousands},
	{Name: "tk_suffix", Matcher: Pattern(`(?i)` + number + ws + `*Tk`), Normalize: stripThousands},
	{Name: "bdt_suffix", Matcher: Pattern(`(?i)` + number + ws + `*BDT`), Normalize: stripThousands},
	{Name: "taka_suffix", Matcher: Pattern(`(?i)` + number + ws + `*Taka`), Normalize: stripThousands},
}

// TrxIDRules are tried in this order.
var TrxIDRules = RuleSet{
	{Name: "trxid", Matcher: Pattern(`(?i)TrxID` + ws + `*:?` + ws + `*([A-Z0-9]+)`)},
	{Name: "trx_id", Matcher: Pattern(`(?i)Trx` + ws + `*ID` + ws + `*:?` + ws + `*([A-Z0-9]+)`)},
	{Name: "transaction_id", Matcher: Pattern(`(?i)Transaction` + ws + `*ID` + ws + `*:?` + ws + `*([A-Z0-9]+)`)},
	{Name: "trans_id", Matcher: Pattern(`(?i)Trans\.` + ws + `*ID` + ws + `*:?` + ws + `*([A-Z0-9]+)`)},
	{Name: "txnid", Matcher: Pattern(`(?i)TxnId` + ws + `*:?` + ws + `*([A-Z0-9]+)`)},
}

// Result is everything extracted from one SMS. AmountRule and TrxIDRule name the
// rule that produced the value and are empty when nothing matched.
type Result struct {
	Provider   domain.ProviderTag
	Amount     string
	AmountRule string
	TrxID      string
	TrxIDRule  string
}

// HasAmount reports whether an amount was found.
func (r Result) HasAmount() bool { return r.AmountRule != "" }

// HasTrxID reports whether a transaction id was found.
func (r Result) HasTrxID() bool { return r.TrxIDRule != "" }

// DetectProvider maps a sender to its provider tag, UNKNOWN when none matches.
func DetectProvider(sender string) domain.ProviderTag {
	if m, ok := providerRules.First(sender); ok {
		return domain.ProviderTag(m.Value)
	}
	return domain.ProviderUnknown
}

// IsPaymentProvider reports whether sender belongs to a known provider.
func IsPaymentProvider(sender string) bool {
	return DetectProvider(sender) != domain.ProviderUnknown
}

// ParseAmount returns the first amount found in message with separators removed.
func ParseAmount(message string) string {
	m, _ := AmountRules.First(message)
	return m.Value
}

// ParseTrxID returns the first transaction id found in message.
func ParseTrxID(message string) string {
	m, _ := TrxIDRules.First(message)
	return m.Value
}

// Parse runs provider detection and both extractors.
func Parse(sender, message string) Result {
	amount, _ := AmountRules.First(message)
	trx, _ := TrxIDRules.First(message)
	return Result{
		Provider:   DetectProvider(sender),
		Amount:     amount.Value,
		AmountRule: amount.Rule,
		TrxID:      trx.Value,
		TrxIDRule:  trx.Rule,
	}
}
