package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"llm-trader/internal/types"
)

// Binance fetches historical klines from the Binance spot API. Read-only:
// no API keys are required for market data.
type Binance struct {
	client   *binance.Client
	interval string
}

func NewBinance(interval string) *Binance {
	return &Binance{
		client:   binance.NewClient("", ""),
		interval: interval,
	}
}

func (b *Binance) Bars(ctx context.Context, symbol string, limit int) ([]types.Bar, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(b.interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}

	bars := make([]types.Bar, 0, len(klines))
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, fmt.Errorf("parse kline for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func klineToBar(k *binance.Kline) (types.Bar, error) {
	var bar types.Bar
	var err error
	if bar.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return bar, err
	}
	if bar.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return bar, err
	}
	if bar.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return bar, err
	}
	if bar.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return bar, err
	}
	if bar.Vol, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return bar, err
	}
	bar.Ts = time.UnixMilli(k.OpenTime).UTC()
	return bar, nil
}
