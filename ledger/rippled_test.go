package ledger

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newRippledStub(t *testing.T, handler func(method string, params gjson.Result) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		method := gjson.GetBytes(body, "method").String()
		params := gjson.GetBytes(body, "params.0")
		io.WriteString(w, handler(method, params))
	}))
}

func TestRippledClient_ClosedLedgerIndex(t *testing.T) {
	srv := newRippledStub(t, func(method string, _ gjson.Result) string {
		assert.Equal(t, "ledger_closed", method)
		return `{"result":{"ledger_hash":"ABC","ledger_index":95700123,"status":"success"}}`
	})
	defer srv.Close()

	client := NewRippledClient(srv.URL)
	index, err := client.ClosedLedgerIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(95700123), index)
}

func TestRippledClient_AccountTransactions(t *testing.T) {
	srv := newRippledStub(t, func(method string, params gjson.Result) string {
		assert.Equal(t, "account_tx", method)
		assert.Equal(t, "rGAME", params.Get("account").String())
		return `{"result":{"status":"success","transactions":[{
			"hash":"ABCDEF",
			"ledger_index":95680100,
			"ledger_hash":"LHASH",
			"validated":true,
			"close_time_iso":"2026-08-01T12:30:45Z",
			"meta":{"TransactionResult":"tesSUCCESS","TransactionIndex":7,"delivered_amount":"2000000"},
			"tx_json":{
				"TransactionType":"Payment",
				"Account":"rPLAYER",
				"Destination":"rGAME",
				"Sequence":42,
				"Fee":"12",
				"Memos":[{"Memo":{"MemoType":"447261774964","MemoData":"585250233935363830303031","MemoFormat":"746578742F706C61696E"}}]
			}
		}],"marker":{"ledger":95600000,"seq":5}}}`
	})
	defer srv.Close()

	client := NewRippledClient(srv.URL)
	txs, marker, err := client.AccountTransactions(context.Background(), "rGAME", "")
	require.NoError(t, err)

	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "ABCDEF", tx.Hash)
	assert.Equal(t, int64(95680100), tx.LedgerIndex)
	assert.Equal(t, "LHASH", tx.LedgerHash)
	assert.True(t, tx.Validated)
	assert.Equal(t, "Payment", tx.TxType)
	assert.Equal(t, "tesSUCCESS", tx.Result)
	assert.Equal(t, int32(7), tx.TxIndex)
	assert.Equal(t, "rPLAYER", tx.Account)
	assert.Equal(t, "rGAME", tx.Destination)
	assert.Equal(t, int64(2_000_000), tx.DeliveredDrops)
	assert.Equal(t, int64(12), tx.FeeDrops)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 30, 45, 0, time.UTC), tx.CloseTime)

	require.Len(t, tx.Memos, 1)
	assert.Equal(t, "DrawId", tx.Memos[0].MemoType)
	assert.Equal(t, "XRP#95680001", tx.Memos[0].MemoData)
	assert.Equal(t, "text/plain", tx.Memos[0].MemoFormat)

	// The opaque marker round-trips as raw JSON.
	assert.True(t, gjson.Valid(marker))
	assert.Equal(t, int64(95600000), gjson.Get(marker, "ledger").Int())
}

func TestRippledClient_AccountTransactions_PassesMarker(t *testing.T) {
	srv := newRippledStub(t, func(_ string, params gjson.Result) string {
		assert.Equal(t, int64(95600000), params.Get("marker.ledger").Int())
		return `{"result":{"status":"success","transactions":[]}}`
	})
	defer srv.Close()

	client := NewRippledClient(srv.URL)
	txs, marker, err := client.AccountTransactions(context.Background(), "rGAME", `{"ledger":95600000,"seq":5}`)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, "", marker)
}

func TestRippledClient_IssuedCurrencyDeliveredAmountIgnored(t *testing.T) {
	srv := newRippledStub(t, func(_ string, _ gjson.Result) string {
		return `{"result":{"status":"success","transactions":[{
			"hash":"IOU1",
			"validated":true,
			"meta":{"TransactionResult":"tesSUCCESS","delivered_amount":{"currency":"USD","issuer":"rISSUER","value":"5"}},
			"tx_json":{"TransactionType":"Payment","Account":"rA","Destination":"rGAME","Fee":"12"}
		}]}}`
	})
	defer srv.Close()

	client := NewRippledClient(srv.URL)
	txs, _, err := client.AccountTransactions(context.Background(), "rGAME", "")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(0), txs[0].DeliveredDrops)
}

func TestRippledClient_LedgerError(t *testing.T) {
	srv := newRippledStub(t, func(_ string, _ gjson.Result) string {
		return `{"result":{"status":"error","error":"actNotFound"}}`
	})
	defer srv.Close()

	client := NewRippledClient(srv.URL)
	_, _, err := client.AccountTransactions(context.Background(), "rUNKNOWN", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actNotFound")
}

func TestDecodeHexText(t *testing.T) {
	assert.Equal(t, "DrawId", decodeHexText("447261774964"))

	// Non-hex input passes through untouched
	assert.Equal(t, "not-hex!", decodeHexText("not-hex!"))
	assert.Equal(t, "", decodeHexText(""))
}
