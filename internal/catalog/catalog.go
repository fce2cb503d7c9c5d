// Package catalog holds the static configuration of the filing domain: the
// supported courts, the document-type registry (display names, issuance
// guide URLs, the auto-issuable subset), and the per-court required-document
// templates seeded into every new case.
//
// This data is fixed at build time and never user-editable. Accessors return
// copies so callers cannot mutate the tables.
package catalog

// Court selects a regional court handling personal-rehabilitation filings.
type Court string

const (
	CourtDaegu    Court = "daegu"
	CourtBusan    Court = "busan"
	CourtDaejeon  Court = "daejeon"
	CourtJeonju   Court = "jeonju"
	CourtCheongju Court = "cheongju"
)

// DocumentType names one kind of filing document.
type DocumentType string

const (
	// Identity and residence
	DocFamilyRelationCert   DocumentType = "family_relation_cert"
	DocMarriageCert         DocumentType = "marriage_cert"
	DocResidentRegister     DocumentType = "resident_register"
	DocResidentAbstract     DocumentType = "resident_abstract"
	DocLeaseContract        DocumentType = "lease_contract"
	DocFreeResidenceConfirm DocumentType = "free_residence_confirm"

	// Debt
	DocDebtCertificate DocumentType = "debt_certificate"

	// Assets: tax
	DocLocalTaxCert DocumentType = "local_tax_cert"

	// Assets: real estate
	DocLandRegistry       DocumentType = "land_registry"
	DocRealEstateRegister DocumentType = "real_estate_register"
	DocBuildingRegister   DocumentType = "building_register"
	DocLandRegister       DocumentType = "land_register"

	// Assets: vehicle
	DocVehicleRegister DocumentType = "vehicle_register"
	DocVehiclePrice    DocumentType = "vehicle_price"

	// Assets: insurance
	DocInsuranceStatus DocumentType = "insurance_status"
	DocInsuranceRefund DocumentType = "insurance_refund"

	// Income: general
	DocHealthInsuranceCert    DocumentType = "health_insurance_cert"
	DocPensionCert            DocumentType = "pension_cert"
	DocIncomeCert             DocumentType = "income_cert"
	DocHealthInsurancePayment DocumentType = "health_insurance_payment"

	// Income: salaried
	DocEmploymentCert  DocumentType = "employment_cert"
	DocSalaryStatement DocumentType = "salary_statement"
	DocWithholdingTax  DocumentType = "withholding_tax"
	DocSeveranceCert   DocumentType = "severance_cert"

	// Income: business
	DocBusinessLicense    DocumentType = "business_license"
	DocVATCert            DocumentType = "vat_cert"
	DocFinancialStatement DocumentType = "financial_statement"

	// Misc
	DocBankStatement       DocumentType = "bank_statement"
	DocCreditCardStatement DocumentType = "credit_card_statement"
	DocCreditEducationCert DocumentType = "credit_education_cert"
	DocPreviousCaseDocs    DocumentType = "previous_case_docs"
	DocDivorceDocs         DocumentType = "divorce_docs"

	DocOther DocumentType = "other"
)

var courtNames = map[Court]string{
	CourtDaegu:    "대구지방법원",
	CourtBusan:    "부산회생법원",
	CourtDaejeon:  "대전지방법원",
	CourtJeonju:   "전주지방법원",
	CourtCheongju: "청주지방법원",
}

// ParseCourt validates a court identifier.
func ParseCourt(s string) (Court, bool) {
	c := Court(s)
	_, ok := courtNames[c]
	return c, ok
}

// CourtName returns the display name for a court.
func CourtName(c Court) string {
	return courtNames[c]
}

// Courts lists the supported courts in a stable order.
func Courts() []Court {
	return []Court{CourtDaegu, CourtBusan, CourtDaejeon, CourtJeonju, CourtCheongju}
}

var documentNames = map[DocumentType]string{
	DocFamilyRelationCert:     "가족관계증명서",
	DocMarriageCert:           "혼인관계증명서",
	DocResidentRegister:       "주민등록등본",
	DocResidentAbstract:       "주민등록초본",
	DocLeaseContract:          "임대차계약서",
	DocFreeResidenceConfirm:   "무상거주확인서",
	DocDebtCertificate:        "부채증명서",
	DocLocalTaxCert:           "지방세 세목별 과세증명서",
	DocLandRegistry:           "지적전산자료조회결과",
	DocRealEstateRegister:     "등기사항전부증명서",
	DocBuildingRegister:       "건축물대장",
	DocLandRegister:           "토지대장",
	DocVehicleRegister:        "자동차등록원부",
	DocVehiclePrice:           "자동차 시가확인자료",
	DocInsuranceStatus:        "보험가입내역조회",
	DocInsuranceRefund:        "해약환급금 내역",
	DocHealthInsuranceCert:    "건강보험자격득실확인서",
	DocPensionCert:            "연금산정용 가입내역확인서",
	DocIncomeCert:             "소득금액증명",
	DocHealthInsurancePayment: "건강보험료확인서",
	DocEmploymentCert:         "재직증명서",
	DocSalaryStatement:        "급여명세서",
	DocWithholdingTax:         "근로소득원천징수영수증",
	DocSeveranceCert:          "퇴직금확인서",
	DocBusinessLicense:        "사업자등록증",
	DocVATCert:                "부가가치세과세표준증명",
	DocFinancialStatement:     "표준재무제표증명",
	DocBankStatement:          "금융계좌 거래내역서",
	DocCreditCardStatement:    "신용카드 사용내역서",
	DocCreditEducationCert:    "신용교육 이수증",
	DocPreviousCaseDocs:       "과거 회생/파산 서류",
	DocDivorceDocs:            "이혼 관련 서류",
	DocOther:                  "기타 서류",
}

var documentURLs = map[DocumentType]string{
	DocFamilyRelationCert: "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A01010&CappBizCD=13100000015",
	DocMarriageCert:       "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A01010&CappBizCD=13100000016",
	DocResidentRegister:   "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A01010&CappBizCD=12500000029",
	DocResidentAbstract:   "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A01010&CappBizCD=12500000030",
	DocLocalTaxCert:       "https://www.wetax.go.kr",
	DocRealEstateRegister: "https://www.iros.go.kr",
	DocBuildingRegister:   "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A09002&CappBizCD=15000000066",
	DocLandRegister:       "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A09002&CappBizCD=15000000073",
	DocVehicleRegister:    "https://www.gov.kr/mw/AA020InfoCappView.do?HighCtgCD=A09006&CappBizCD=15100000177",
	DocInsuranceStatus:    "https://www.credit4u.or.kr",
	DocHealthInsuranceCert: "https://www.nhis.or.kr",
	DocPensionCert:         "https://www.nps.or.kr",
	DocIncomeCert:          "https://www.hometax.go.kr",
	DocVATCert:             "https://www.hometax.go.kr",
	DocFinancialStatement:  "https://www.hometax.go.kr",
	DocCreditEducationCert: "https://www.educredit.or.kr",
}

// autoIssuable is the subset of document types the external issuer can
// produce without a staff member visiting an agency.
var autoIssuable = map[DocumentType]bool{
	DocHealthInsuranceCert: true,
	DocPensionCert:         true,
	DocResidentRegister:    true,
	DocResidentAbstract:    true,
	DocIncomeCert:          true,
	DocLocalTaxCert:        true,
}

// IsKnown reports whether t is a registered document type.
func IsKnown(t DocumentType) bool {
	_, ok := documentNames[t]
	return ok
}

// DocumentName returns the display name for a document type, falling back to
// the raw identifier for unregistered types.
func DocumentName(t DocumentType) string {
	if name, ok := documentNames[t]; ok {
		return name
	}
	return string(t)
}

// IssueURL returns the self-service issuance URL for a document type, if any.
func IssueURL(t DocumentType) string {
	return documentURLs[t]
}

// AutoIssuable reports whether the external issuer supports t.
func AutoIssuable(t DocumentType) bool {
	return autoIssuable[t]
}

// DocumentTypes lists every registered type in a stable order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocFamilyRelationCert, DocMarriageCert, DocResidentRegister,
		DocResidentAbstract, DocLeaseContract, DocFreeResidenceConfirm,
		DocDebtCertificate, DocLocalTaxCert, DocLandRegistry,
		DocRealEstateRegister, DocBuildingRegister, DocLandRegister,
		DocVehicleRegister, DocVehiclePrice, DocInsuranceStatus,
		DocInsuranceRefund, DocHealthInsuranceCert, DocPensionCert,
		DocIncomeCert, DocHealthInsurancePayment, DocEmploymentCert,
		DocSalaryStatement, DocWithholdingTax, DocSeveranceCert,
		DocBusinessLicense, DocVATCert, DocFinancialStatement,
		DocBankStatement, DocCreditCardStatement, DocCreditEducationCert,
		DocPreviousCaseDocs, DocDivorceDocs, DocOther,
	}
}

// standardTemplate is shared by the three district courts that use the
// common checklist.
var standardTemplate = []DocumentType{
	DocFamilyRelationCert,
	DocResidentRegister,
	DocHealthInsuranceCert,
	DocPensionCert,
	DocIncomeCert,
	DocLocalTaxCert,
	DocLandRegistry,
	DocRealEstateRegister,
	DocVehicleRegister,
	DocInsuranceStatus,
	DocBankStatement,
	DocCreditEducationCert,
}

var courtTemplates = map[Court][]DocumentType{
	CourtDaegu: standardTemplate,
	CourtBusan: {
		DocFamilyRelationCert,
		DocMarriageCert,
		DocResidentRegister,
		DocResidentAbstract,
		DocHealthInsuranceCert,
		DocPensionCert,
		DocIncomeCert,
		DocHealthInsurancePayment,
		DocLocalTaxCert,
		DocLandRegistry,
		DocRealEstateRegister,
		DocBuildingRegister,
		DocLandRegister,
		DocVehicleRegister,
		DocVehiclePrice,
		DocInsuranceStatus,
		DocInsuranceRefund,
		DocBankStatement,
		DocCreditCardStatement,
		DocCreditEducationCert,
	},
	CourtDaejeon:  standardTemplate,
	CourtJeonju:   standardTemplate,
	CourtCheongju: standardTemplate,
}

// Template returns the ordered required-document list for a court.
func Template(c Court) []DocumentType {
	tpl := courtTemplates[c]
	out := make([]DocumentType, len(tpl))
	copy(out, tpl)
	return out
}
