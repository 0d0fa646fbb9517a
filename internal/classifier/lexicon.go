package classifier

// bankruptcyTerms is the fixed sublist (~18 terms) used to split combined
// matches into bankruptcy hits vs. freight hits, and to compute the
// cross-domain bonus.
var bankruptcyTerms = []string{
	"bankrupt",
	"bankruptcy",
	"chapter 7",
	"chapter 11",
	"chapter 13",
	"chapter seven",
	"chapter eleven",
	"chapter thirteen",
	"insolvent",
	"insolvency",
	"liquidation",
	"liquidating",
	"reorganization",
	"debtor",
	"creditor",
	"trustee",
	"receivership",
	"ceased operations",
}

// freightTerms is the freight/trucking/logistics half of the combined
// lexicon.
var freightTerms = []string{
	"freight",
	"truck",
	"trucking",
	"carrier",
	"motor carrier",
	"common carrier",
	"contract carrier",
	"freight carrier",
	"trucking company",
	"trucking firm",
	"logistics",
	"logistics company",
	"3pl",
	"third party logistics",
	"third-party logistics",
	"freight broker",
	"broker",
	"brokerage",
	"freight brokerage",
	"property broker",
	"licensed broker",
	"forwarder",
	"freight forwarder",
	"nvocc",
	"non-vessel operating common carrier",
	"shipper",
	"consignee",
	"shipment",
	"shipping",
	"cargo",
	"load board",
	"dispatch",
	"dispatcher",
	"cdl",
	"cdl driver",
	"owner operator",
	"owner-operator",
	"fleet",
	"tractor trailer",
	"semi truck",
	"flatbed",
	"reefer",
	"dry van",
	"ltl",
	"less than truckload",
	"full truckload",
	"ftl",
	"intermodal",
	"drayage",
	"port drayage",
	"warehousing",
	"warehouse",
	"distribution center",
	"supply chain",
	"freight rate",
	"fuel surcharge",
	"detention",
	"demurrage",
	"bill of lading",
	"bol",
	"operating authority",
	"mc number",
	"usdot",
	"dot number",
	"fmcsa",
	"interstate commerce",
	"for-hire carrier",
	"private carrier",
	"hazmat carrier",
	"expedited freight",
	"freight lane",
	"brokered load",
	"factoring",
	"freight factoring",
	"trailer",
	"chassis",
	"cross-docking",
	"last mile delivery",
	"final mile",
	"parcel delivery",
	"freight audit",
	"transportation management system",
	"freight claim",
	"cargo claim",
	"cargo insurance",
	"bmc-84",
	"bmc-85",
	"surety bond",
	"revoked authority",
	"out of service",
	"authority revocation",
	"safety rating",
	"csa score",
	"unsafe driving",
	"terminated lease",
	"equipment repossession",
	"yard closure",
	"terminal closure",
	"workforce reduction",
	"going concern",
}

// combinedTerms is the full vocabulary behind the single multi-pattern
// scan.
var combinedTerms = append(append([]string{}, freightTerms...), bankruptcyTerms...)

// highSignalPhrases are counted with extra weight in the confidence score.
var highSignalPhrases = []string{
	"motor carrier",
	"freight broker",
	"trucking company",
	"3pl",
	"chapter 11",
	"chapter 7",
	"operating authority",
}

// carrierTerms, brokerTerms, thirdPartyLogisticsTerms, and forwarderTerms
// are the four narrower lexicons used only to pick a Classification.
var carrierTerms = []string{
	"freight",
	"motor carrier",
	"common carrier",
	"contract carrier",
	"freight carrier",
	"trucking company",
	"trucking firm",
	"for-hire carrier",
	"private carrier",
	"fleet",
	"tractor trailer",
	"semi truck",
	"cdl driver",
	"owner operator",
	"owner-operator",
	"dry van",
	"flatbed",
	"reefer",
	"hazmat carrier",
}

var brokerTerms = []string{
	"freight broker",
	"broker",
	"brokerage",
	"freight brokerage",
	"property broker",
	"licensed broker",
	"load board",
	"dispatch",
	"dispatcher",
	"brokered load",
	"bmc-84",
	"bmc-85",
	"surety bond",
}

var thirdPartyLogisticsTerms = []string{
	"3pl",
	"third party logistics",
	"third-party logistics",
	"logistics company",
	"supply chain",
	"warehousing",
	"warehouse",
	"distribution center",
	"cross-docking",
	"last mile delivery",
	"final mile",
	"transportation management system",
}

var forwarderTerms = []string{
	"freight forwarder",
	"forwarder",
	"nvocc",
	"non-vessel operating common carrier",
	"bill of lading",
	"bol",
	"intermodal",
	"drayage",
	"port drayage",
	"consignee",
	"shipper",
	"cargo claim",
}

// quickCheckMarkers is the cheap byte-level gate: any of these (either case)
// occurring anywhere in the text is enough to proceed to the full scan.
var quickCheckMarkers = []string{
	"freight", "Freight",
	"truck", "Truck",
	"carrier", "Carrier",
	"logistics", "Logistics",
	"bankrupt", "Bankrupt",
	"chapter", "Chapter",
	"3pl", "3PL",
	"broker", "Broker",
}
