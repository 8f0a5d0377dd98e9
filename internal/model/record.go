package model

// Record is the closed tagged union over per-type extraction results. Each
// variant carries its own strongly-typed field struct; downstream stages
// operate only on the generic envelope (type + fields-as-map). Records are
// ephemeral: produced fresh per extraction call, no identity.
type Record interface {
	SourceType() SourceType
	// FieldMap returns the populated (non-empty) fields keyed by their
	// schema field names.
	FieldMap() map[string]string
	// Empty reports whether every field is unpopulated. Extractors must
	// discard empty records before they reach the merger.
	Empty() bool
}

// putIfSet adds a field to the map only when it carries a value.
func putIfSet(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// EmploymentFields holds one employment income instance.
type EmploymentFields struct {
	EmployerName        string `json:"employer_name"`
	JobTitle            string `json:"job_title"`
	EmploymentStartDate string `json:"employment_start_date"`
	EmploymentEndDate   string `json:"employment_end_date"`
	AnnualCompensation  string `json:"annual_compensation"`
	CountryOfEmployment string `json:"country_of_employment"`
}

func (EmploymentFields) SourceType() SourceType { return SourceEmploymentIncome }

func (f EmploymentFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "employer_name", f.EmployerName)
	putIfSet(m, "job_title", f.JobTitle)
	putIfSet(m, "employment_start_date", f.EmploymentStartDate)
	putIfSet(m, "employment_end_date", f.EmploymentEndDate)
	putIfSet(m, "annual_compensation", f.AnnualCompensation)
	putIfSet(m, "country_of_employment", f.CountryOfEmployment)
	return m
}

func (f EmploymentFields) Empty() bool { return len(f.FieldMap()) == 0 }

// PropertySaleFields holds one sale-of-property instance.
type PropertySaleFields struct {
	PropertyAddress           string `json:"property_address"`
	PropertyType              string `json:"property_type"`
	OriginalAcquisitionMethod string `json:"original_acquisition_method"`
	OriginalAcquisitionDate   string `json:"original_acquisition_date"`
	OriginalPurchasePrice     string `json:"original_purchase_price"`
	SaleDate                  string `json:"sale_date"`
	SaleProceeds              string `json:"sale_proceeds"`
}

func (PropertySaleFields) SourceType() SourceType { return SourceSaleOfProperty }

func (f PropertySaleFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "property_address", f.PropertyAddress)
	putIfSet(m, "property_type", f.PropertyType)
	putIfSet(m, "original_acquisition_method", f.OriginalAcquisitionMethod)
	putIfSet(m, "original_acquisition_date", f.OriginalAcquisitionDate)
	putIfSet(m, "original_purchase_price", f.OriginalPurchasePrice)
	putIfSet(m, "sale_date", f.SaleDate)
	putIfSet(m, "sale_proceeds", f.SaleProceeds)
	return m
}

func (f PropertySaleFields) Empty() bool { return len(f.FieldMap()) == 0 }

// BusinessIncomeFields holds one business income instance.
type BusinessIncomeFields struct {
	BusinessName             string `json:"business_name"`
	NatureOfBusiness         string `json:"nature_of_business"`
	OwnershipPercentage      string `json:"ownership_percentage"`
	AnnualIncomeFromBusiness string `json:"annual_income_from_business"`
	OwnershipStartDate       string `json:"ownership_start_date"`
	HowBusinessAcquired      string `json:"how_business_acquired"`
}

func (BusinessIncomeFields) SourceType() SourceType { return SourceBusinessIncome }

func (f BusinessIncomeFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "business_name", f.BusinessName)
	putIfSet(m, "nature_of_business", f.NatureOfBusiness)
	putIfSet(m, "ownership_percentage", f.OwnershipPercentage)
	putIfSet(m, "annual_income_from_business", f.AnnualIncomeFromBusiness)
	putIfSet(m, "ownership_start_date", f.OwnershipStartDate)
	putIfSet(m, "how_business_acquired", f.HowBusinessAcquired)
	return m
}

func (f BusinessIncomeFields) Empty() bool { return len(f.FieldMap()) == 0 }

// BusinessDividendsFields holds one business dividends instance.
type BusinessDividendsFields struct {
	CompanyName            string `json:"company_name"`
	ShareholdingPercentage string `json:"shareholding_percentage"`
	DividendAmount         string `json:"dividend_amount"`
	PeriodReceived         string `json:"period_received"`
	HowSharesAcquired      string `json:"how_shares_acquired"`
}

func (BusinessDividendsFields) SourceType() SourceType { return SourceBusinessDividends }

func (f BusinessDividendsFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "company_name", f.CompanyName)
	putIfSet(m, "shareholding_percentage", f.ShareholdingPercentage)
	putIfSet(m, "dividend_amount", f.DividendAmount)
	putIfSet(m, "period_received", f.PeriodReceived)
	putIfSet(m, "how_shares_acquired", f.HowSharesAcquired)
	return m
}

func (f BusinessDividendsFields) Empty() bool { return len(f.FieldMap()) == 0 }

// BusinessSaleFields holds one sale-of-business instance.
type BusinessSaleFields struct {
	BusinessName                  string `json:"business_name"`
	NatureOfBusiness              string `json:"nature_of_business"`
	OwnershipPercentageSold       string `json:"ownership_percentage_sold"`
	SaleDate                      string `json:"sale_date"`
	SaleProceeds                  string `json:"sale_proceeds"`
	BuyerIdentity                 string `json:"buyer_identity"`
	HowBusinessOriginallyAcquired string `json:"how_business_originally_acquired"`
}

func (BusinessSaleFields) SourceType() SourceType { return SourceSaleOfBusiness }

func (f BusinessSaleFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "business_name", f.BusinessName)
	putIfSet(m, "nature_of_business", f.NatureOfBusiness)
	putIfSet(m, "ownership_percentage_sold", f.OwnershipPercentageSold)
	putIfSet(m, "sale_date", f.SaleDate)
	putIfSet(m, "sale_proceeds", f.SaleProceeds)
	putIfSet(m, "buyer_identity", f.BuyerIdentity)
	putIfSet(m, "how_business_originally_acquired", f.HowBusinessOriginallyAcquired)
	return m
}

func (f BusinessSaleFields) Empty() bool { return len(f.FieldMap()) == 0 }

// AssetSaleFields holds one sale-of-asset instance.
type AssetSaleFields struct {
	AssetDescription          string `json:"asset_description"`
	OriginalAcquisitionMethod string `json:"original_acquisition_method"`
	OriginalAcquisitionDate   string `json:"original_acquisition_date"`
	SaleDate                  string `json:"sale_date"`
	SaleProceeds              string `json:"sale_proceeds"`
	BuyerIdentity             string `json:"buyer_identity"`
}

func (AssetSaleFields) SourceType() SourceType { return SourceSaleOfAsset }

func (f AssetSaleFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "asset_description", f.AssetDescription)
	putIfSet(m, "original_acquisition_method", f.OriginalAcquisitionMethod)
	putIfSet(m, "original_acquisition_date", f.OriginalAcquisitionDate)
	putIfSet(m, "sale_date", f.SaleDate)
	putIfSet(m, "sale_proceeds", f.SaleProceeds)
	putIfSet(m, "buyer_identity", f.BuyerIdentity)
	return m
}

func (f AssetSaleFields) Empty() bool { return len(f.FieldMap()) == 0 }

// InheritanceFields holds one inheritance instance.
type InheritanceFields struct {
	DeceasedName                   string `json:"deceased_name"`
	RelationshipToDeceased         string `json:"relationship_to_deceased"`
	DateOfDeath                    string `json:"date_of_death"`
	AmountInherited                string `json:"amount_inherited"`
	NatureOfInheritedAssets        string `json:"nature_of_inherited_assets"`
	OriginalSourceOfDeceasedWealth string `json:"original_source_of_deceased_wealth"`
}

func (InheritanceFields) SourceType() SourceType { return SourceInheritance }

func (f InheritanceFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "deceased_name", f.DeceasedName)
	putIfSet(m, "relationship_to_deceased", f.RelationshipToDeceased)
	putIfSet(m, "date_of_death", f.DateOfDeath)
	putIfSet(m, "amount_inherited", f.AmountInherited)
	putIfSet(m, "nature_of_inherited_assets", f.NatureOfInheritedAssets)
	putIfSet(m, "original_source_of_deceased_wealth", f.OriginalSourceOfDeceasedWealth)
	return m
}

func (f InheritanceFields) Empty() bool { return len(f.FieldMap()) == 0 }

// GiftFields holds one gift instance.
type GiftFields struct {
	DonorName           string `json:"donor_name"`
	RelationshipToDonor string `json:"relationship_to_donor"`
	GiftDate            string `json:"gift_date"`
	GiftValue           string `json:"gift_value"`
	DonorSourceOfWealth string `json:"donor_source_of_wealth"`
	ReasonForGift       string `json:"reason_for_gift"`
}

func (GiftFields) SourceType() SourceType { return SourceGift }

func (f GiftFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "donor_name", f.DonorName)
	putIfSet(m, "relationship_to_donor", f.RelationshipToDonor)
	putIfSet(m, "gift_date", f.GiftDate)
	putIfSet(m, "gift_value", f.GiftValue)
	putIfSet(m, "donor_source_of_wealth", f.DonorSourceOfWealth)
	putIfSet(m, "reason_for_gift", f.ReasonForGift)
	return m
}

func (f GiftFields) Empty() bool { return len(f.FieldMap()) == 0 }

// DivorceSettlementFields holds one divorce settlement instance.
type DivorceSettlementFields struct {
	FormerSpouseName   string `json:"former_spouse_name"`
	SettlementDate     string `json:"settlement_date"`
	SettlementAmount   string `json:"settlement_amount"`
	CourtJurisdiction  string `json:"court_jurisdiction"`
	DurationOfMarriage string `json:"duration_of_marriage"`
}

func (DivorceSettlementFields) SourceType() SourceType { return SourceDivorceSettlement }

func (f DivorceSettlementFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "former_spouse_name", f.FormerSpouseName)
	putIfSet(m, "settlement_date", f.SettlementDate)
	putIfSet(m, "settlement_amount", f.SettlementAmount)
	putIfSet(m, "court_jurisdiction", f.CourtJurisdiction)
	putIfSet(m, "duration_of_marriage", f.DurationOfMarriage)
	return m
}

func (f DivorceSettlementFields) Empty() bool { return len(f.FieldMap()) == 0 }

// LotteryWinningsFields holds one lottery winnings instance.
type LotteryWinningsFields struct {
	LotteryName         string `json:"lottery_name"`
	WinDate             string `json:"win_date"`
	GrossAmountWon      string `json:"gross_amount_won"`
	CountryOfWin        string `json:"country_of_win"`
	VerificationDetails string `json:"verification_details"`
}

func (LotteryWinningsFields) SourceType() SourceType { return SourceLotteryWinnings }

func (f LotteryWinningsFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "lottery_name", f.LotteryName)
	putIfSet(m, "win_date", f.WinDate)
	putIfSet(m, "gross_amount_won", f.GrossAmountWon)
	putIfSet(m, "country_of_win", f.CountryOfWin)
	putIfSet(m, "verification_details", f.VerificationDetails)
	return m
}

func (f LotteryWinningsFields) Empty() bool { return len(f.FieldMap()) == 0 }

// InsurancePayoutFields holds one insurance payout instance.
type InsurancePayoutFields struct {
	InsuranceProvider     string `json:"insurance_provider"`
	PolicyType            string `json:"policy_type"`
	ClaimEventDescription string `json:"claim_event_description"`
	PayoutDate            string `json:"payout_date"`
	PayoutAmount          string `json:"payout_amount"`
}

func (InsurancePayoutFields) SourceType() SourceType { return SourceInsurancePayout }

func (f InsurancePayoutFields) FieldMap() map[string]string {
	m := make(map[string]string)
	putIfSet(m, "insurance_provider", f.InsuranceProvider)
	putIfSet(m, "policy_type", f.PolicyType)
	putIfSet(m, "claim_event_description", f.ClaimEventDescription)
	putIfSet(m, "payout_date", f.PayoutDate)
	putIfSet(m, "payout_amount", f.PayoutAmount)
	return m
}

func (f InsurancePayoutFields) Empty() bool { return len(f.FieldMap()) == 0 }
