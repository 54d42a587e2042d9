package exchange

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	gojson "github.com/goccy/go-json"
	"github.com/polymarket/go-order-utils/pkg/model"

	"github.com/mselser95/clob-arb/pkg/types"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// signedOrderJSON is the wire form of an EIP-712 signed order.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type orderSubmission struct {
	Order     signedOrderJSON `json:"order"`
	Owner     string          `json:"owner"` // the API key, not the maker address
	OrderType string          `json:"orderType"`
}

// buildOrderPayload signs a limit order and marshals the submission body.
// Buys spend quote currency (maker=USD, taker=shares); sells the reverse.
func (c *Client) buildOrderPayload(tokenID string, side types.Side, price, size float64) ([]byte, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("no signing identity configured")
	}

	usd := roundAmount(price*size, 4)

	var makerAmount, takerAmount string
	var orderSide model.Side
	if side == types.SideBuy {
		orderSide = model.BUY
		makerAmount = toRawAmount(usd)
		takerAmount = toRawAmount(size)
	} else {
		orderSide = model.SELL
		makerAmount = toRawAmount(size)
		takerAmount = toRawAmount(usd)
	}

	orderData := &model.OrderData{
		Maker:         c.signer.MakerAddress(),
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          orderSide,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.signer.Address(),
		Expiration:    "0",
		SignatureType: model.SignatureType(c.signer.SignatureType()),
	}

	signed, err := c.orderBuilder.BuildSignedOrder(c.signer.PrivateKey(), orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	sideStr := "BUY"
	if signed.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	submission := orderSubmission{
		Order: signedOrderJSON{
			Salt:          signed.Salt.Int64(),
			Maker:         signed.Maker.Hex(),
			Signer:        signed.Signer.Hex(),
			Taker:         signed.Taker.Hex(),
			TokenID:       signed.TokenId.String(),
			MakerAmount:   signed.MakerAmount.String(),
			TakerAmount:   signed.TakerAmount.String(),
			Side:          sideStr,
			Expiration:    signed.Expiration.String(),
			Nonce:         signed.Nonce.String(),
			FeeRateBps:    signed.FeeRateBps.String(),
			SignatureType: int(signed.SignatureType.Int64()),
			Signature:     "0x" + common.Bytes2Hex(signed.Signature),
		},
		Owner:     c.creds.APIKey,
		OrderType: "GTC",
	}

	return gojson.Marshal(submission)
}

// toRawAmount converts a quote amount to the exchange's 6-decimal raw integer.
func toRawAmount(amount float64) string {
	return fmt.Sprintf("%d", int64(amount*1_000_000))
}

// roundAmount rounds to the given number of decimal places.
func roundAmount(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(value*multiplier) / multiplier
}
