package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"hashdraw/models"
)

const defaultPageSize = 100

// RippledClient talks JSON-RPC over HTTP to a rippled node. It implements
// Client for the two commands the engine needs: ledger_closed and account_tx.
type RippledClient struct {
	url      string
	http     *http.Client
	pageSize int
}

// NewRippledClient creates a client for the given rippled JSON-RPC endpoint.
func NewRippledClient(url string) *RippledClient {
	return &RippledClient{
		url:      url,
		http:     &http.Client{Timeout: 30 * time.Second},
		pageSize: defaultPageSize,
	}
}

// ClosedLedgerIndex returns the index of the most recently closed ledger.
func (c *RippledClient) ClosedLedgerIndex(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "ledger_closed", map[string]any{})
	if err != nil {
		return 0, err
	}
	return result.Get("ledger_index").Int(), nil
}

// AccountTransactions returns one page of account history, newest first.
// The marker is rippled's opaque resume token serialized as JSON.
func (c *RippledClient) AccountTransactions(ctx context.Context, account, marker string) ([]AccountTx, string, error) {
	params := map[string]any{
		"account": account,
		"limit":   c.pageSize,
	}
	if marker != "" {
		params["marker"] = json.RawMessage(marker)
	}

	result, err := c.call(ctx, "account_tx", params)
	if err != nil {
		return nil, "", err
	}

	var txs []AccountTx
	result.Get("transactions").ForEach(func(_, entry gjson.Result) bool {
		txs = append(txs, parseAccountTx(entry))
		return true
	})

	nextMarker := ""
	if m := result.Get("marker"); m.Exists() {
		nextMarker = m.Raw
	}
	return txs, nextMarker, nil
}

func (c *RippledClient) call(ctx context.Context, method string, params map[string]any) (gjson.Result, error) {
	body, err := json.Marshal(map[string]any{
		"method": method,
		"params": []any{params},
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%s returned HTTP %d", method, resp.StatusCode)
	}

	result := gjson.GetBytes(payload, "result")
	if result.Get("status").String() == "error" {
		return gjson.Result{}, fmt.Errorf("%s returned ledger error: %s", method, result.Get("error").String())
	}
	return result, nil
}

func parseAccountTx(entry gjson.Result) AccountTx {
	tx := AccountTx{
		Hash:        entry.Get("hash").String(),
		LedgerIndex: entry.Get("ledger_index").Int(),
		LedgerHash:  entry.Get("ledger_hash").String(),
		Validated:   entry.Get("validated").Bool(),
		TxType:      entry.Get("tx_json.TransactionType").String(),
		Result:      entry.Get("meta.TransactionResult").String(),
		TxIndex:     int32(entry.Get("meta.TransactionIndex").Int()),
		Sequence:    entry.Get("tx_json.Sequence").Int(),
		Account:     entry.Get("tx_json.Account").String(),
		Destination: entry.Get("tx_json.Destination").String(),
		FeeDrops:    entry.Get("tx_json.Fee").Int(),
		RawJSON:     entry.Raw,
	}

	// delivered_amount is a drops string for native payments; issued
	// currencies come back as objects and are left at zero.
	if delivered := entry.Get("meta.delivered_amount"); delivered.Type == gjson.String {
		tx.DeliveredDrops = delivered.Int()
	}

	if closeTime := entry.Get("close_time_iso").String(); closeTime != "" {
		if t, err := time.Parse(time.RFC3339, closeTime); err == nil {
			tx.CloseTime = t.UTC()
		}
	}

	entry.Get("tx_json.Memos").ForEach(func(_, wrapper gjson.Result) bool {
		memo := wrapper.Get("Memo")
		tx.Memos = append(tx.Memos, models.Memo{
			MemoType:   decodeHexText(memo.Get("MemoType").String()),
			MemoData:   decodeHexText(memo.Get("MemoData").String()),
			MemoFormat: decodeHexText(memo.Get("MemoFormat").String()),
		})
		return true
	})

	return tx
}

// decodeHexText converts an on-ledger hex memo field to text. Fields that do
// not decode cleanly are passed through untouched.
func decodeHexText(s string) string {
	if s == "" {
		return ""
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	return string(decoded)
}
