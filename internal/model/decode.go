package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// decodeList unmarshals a JSON array of one variant type and lifts the
// non-empty elements into the Record envelope.
func decodeList[T Record](data []byte) ([]Record, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if item.Empty() {
			continue
		}
		records = append(records, item)
	}
	return records, nil
}

// UnmarshalRecords parses a JSON array of extraction output for the given
// source type into typed Records. Records with every field null or empty are
// dropped here, before they can reach the merger.
func UnmarshalRecords(t SourceType, data []byte) ([]Record, error) {
	var records []Record
	var err error
	switch t {
	case SourceEmploymentIncome:
		records, err = decodeList[EmploymentFields](data)
	case SourceSaleOfProperty:
		records, err = decodeList[PropertySaleFields](data)
	case SourceBusinessIncome:
		records, err = decodeList[BusinessIncomeFields](data)
	case SourceBusinessDividends:
		records, err = decodeList[BusinessDividendsFields](data)
	case SourceSaleOfBusiness:
		records, err = decodeList[BusinessSaleFields](data)
	case SourceSaleOfAsset:
		records, err = decodeList[AssetSaleFields](data)
	case SourceInheritance:
		records, err = decodeList[InheritanceFields](data)
	case SourceGift:
		records, err = decodeList[GiftFields](data)
	case SourceDivorceSettlement:
		records, err = decodeList[DivorceSettlementFields](data)
	case SourceLotteryWinnings:
		records, err = decodeList[LotteryWinningsFields](data)
	case SourceInsurancePayout:
		records, err = decodeList[InsurancePayoutFields](data)
	default:
		return nil, eris.Errorf("model: unknown source type %q", t)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "model: decode %s records", t)
	}
	return records, nil
}
