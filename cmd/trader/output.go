package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/uhyunpark/orderdesk/pkg/bot"
	"github.com/uhyunpark/orderdesk/pkg/exchange"
	"github.com/uhyunpark/orderdesk/pkg/orders"
	"github.com/uhyunpark/orderdesk/pkg/storage"
)

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func millis(ms int64) string {
	if ms == 0 {
		return "N/A"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func printOrder(w io.Writer, r orders.Response) {
	tw := table(w)
	row(tw, "FIELD", "VALUE")
	row(tw, "Order ID", r.OrderID)
	row(tw, "Symbol", r.Symbol)
	row(tw, "Side", r.Side)
	row(tw, "Type", r.Type)
	row(tw, "Quantity", r.Quantity)
	row(tw, "Price", orNA(r.Price))
	row(tw, "Status", r.Status)
	row(tw, "Time", millis(r.Time))
	if r.UpdateTime != 0 {
		row(tw, "Update Time", millis(r.UpdateTime))
	}
	tw.Flush()
}

func printOrders(w io.Writer, rs []orders.Response) {
	if len(rs) == 0 {
		printf(w, "no orders to display\n")
		return
	}
	tw := table(w)
	row(tw, "ORDER ID", "SYMBOL", "SIDE", "TYPE", "QUANTITY", "PRICE", "STATUS")
	for _, r := range rs {
		row(tw, r.OrderID, r.Symbol, r.Side, r.Type, r.Quantity, orNA(r.Price), r.Status)
	}
	tw.Flush()
}

func printPrice(w io.Writer, p bot.PriceInfo) {
	tw := table(w)
	row(tw, "Symbol", p.Symbol)
	row(tw, "Current Price", p.CurrentPrice)
	row(tw, "Bid / Ask", p.BidPrice+" / "+p.AskPrice)
	row(tw, "24h High / Low", p.High24h+" / "+p.Low24h)
	row(tw, "24h Volume", p.Volume24h)
	row(tw, "24h Change", p.PriceChange24h+" ("+p.PriceChangePercent24h+"%)")
	tw.Flush()
}

func printSymbolInfo(w io.Writer, s exchange.SymbolInfo) {
	tw := table(w)
	row(tw, "Symbol", s.Symbol)
	row(tw, "Status", s.Status)
	row(tw, "Base Asset", s.BaseAsset)
	row(tw, "Quote Asset", s.QuoteAsset)
	row(tw, "Price Precision", s.PricePrecision)
	row(tw, "Quantity Precision", s.QuantityPrecision)
	tw.Flush()
}

func printTrades(w io.Writer, trades []exchange.Trade) {
	if len(trades) == 0 {
		printf(w, "no trades to display\n")
		return
	}
	tw := table(w)
	row(tw, "ID", "PRICE", "QTY", "TIME", "BUYER MAKER")
	for _, tr := range trades {
		row(tw, tr.ID, tr.Price, tr.Qty, millis(tr.Time), tr.IsBuyerMaker)
	}
	tw.Flush()
}

func printKlines(w io.Writer, ks []exchange.Kline) {
	if len(ks) == 0 {
		printf(w, "no klines to display\n")
		return
	}
	tw := table(w)
	row(tw, "OPEN TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
	for _, k := range ks {
		row(tw, millis(k.OpenTime), k.Open, k.High, k.Low, k.Close, k.Volume)
	}
	tw.Flush()
}

func printAccount(w io.Writer, a exchange.Account) {
	printf(w, "can trade: %t  can withdraw: %t  can deposit: %t\n\n", a.CanTrade, a.CanWithdraw, a.CanDeposit)

	tw := table(w)
	row(tw, "ASSET", "WALLET", "UNREALIZED PNL", "MARGIN", "AVAILABLE")
	for _, as := range a.Assets {
		row(tw, as.Asset, as.WalletBalance, as.UnrealizedPnl, as.MarginBalance, as.AvailableBalance)
	}
	tw.Flush()

	if len(a.Positions) == 0 {
		return
	}
	printf(w, "\n")
	tw = table(w)
	row(tw, "SYMBOL", "AMOUNT", "ENTRY", "MARK", "UNREALIZED PNL")
	for _, p := range a.Positions {
		row(tw, p.Symbol, p.PositionAmt, p.EntryPrice, p.MarkPrice, p.UnRealizedProfit)
	}
	tw.Flush()
}

func printBalance(w io.Writer, b bot.Balance) {
	tw := table(w)
	row(tw, "Asset", b.Asset)
	row(tw, "Wallet Balance", b.WalletBalance)
	row(tw, "Unrealized PnL", b.UnrealizedPnl)
	row(tw, "Margin Balance", b.MarginBalance)
	row(tw, "Available Balance", b.AvailableBalance)
	tw.Flush()
}

func printClosed(w io.Writer, closed []bot.ClosedPosition) {
	if len(closed) == 0 {
		printf(w, "no positions to close\n")
		return
	}
	tw := table(w)
	row(tw, "SYMBOL", "SIDE", "QUANTITY", "ORDER ID", "STATUS")
	for _, c := range closed {
		row(tw, c.Symbol, c.Side, c.Quantity, c.Result.OrderID, c.Result.Status)
	}
	tw.Flush()
}

func printCanceled(w io.Writer, canceled []bot.CanceledOrder) {
	if len(canceled) == 0 {
		printf(w, "no orders to cancel\n")
		return
	}
	tw := table(w)
	row(tw, "SYMBOL", "ORDER ID", "STATUS")
	for _, c := range canceled {
		row(tw, c.Symbol, c.OrderID, c.Result.Status)
	}
	tw.Flush()
}

func printJournal(w io.Writer, entries []storage.Entry) {
	if len(entries) == 0 {
		printf(w, "no API calls logged yet\n")
		return
	}
	tw := table(w)
	row(tw, "TIME", "ENDPOINT", "RESPONSE")
	for _, e := range entries {
		resp := string(e.Response)
		if len(resp) > 80 {
			resp = resp[:77] + "..."
		}
		row(tw, e.Time.UTC().Format(time.RFC3339), e.Endpoint, resp)
	}
	tw.Flush()
}
