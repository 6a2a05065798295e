package rules

const (
	hanName = `\x{4e00}-\x{9fa5}`

	numberedItem   = `^\s*[（(]?\s*\d+\s*[)）]`
	bigTitle       = `^\s*[（(]?[一二三四五六七八九十]+[)）]?[、.．]`
	basicInfoTitle = bigTitle + `\s*高后果区基本信息\s*$`

	measureLabel = `(?:专职\s*区[（(]段[）)]长(?:姓名)?|专职\s*区长|专职\s*段长|专职区段长)\s*[:：]\s*`
)

// Labels used across validators.
const (
	LabelImagery    = "高后果区影像图"
	LabelSitePhoto  = "高后果区现场图"
	LabelEntryRoute = "入场线路图"
	LabelEscape     = "逃生路线图"
	LabelAssembly   = "应急疏散集合点位置"
	LabelOilBoom    = "水体敏感型高后果区围油设施放置图"

	CategoryPopulated = "人员密集型"
	CategoryEnviron   = "环境敏感型"
)

// Default returns a freshly compiled copy of the built-in rule tables.
func Default() *Rules {
	r := defaultRules()
	if err := r.Validate(); err != nil {
		panic("rules: built-in tables are invalid: " + err.Error())
	}
	return r
}

func defaultRules() *Rules {
	return &Rules{
		Category: CategoryRules{
			Label:        "高后果区类型",
			Supported:    []string{CategoryPopulated, CategoryEnviron},
			Replacements: []Replacement{{From: "类", To: "型"}},
			Requirements: []Requirement{
				{Category: CategoryPopulated, Evidence: []string{LabelImagery, LabelSitePhoto, LabelEntryRoute, LabelEscape, LabelAssembly}},
				{Category: CategoryEnviron, Evidence: []string{LabelImagery, LabelSitePhoto, LabelEntryRoute, LabelOilBoom}},
			},
			DownRows: 3,
		},
		Evidence: EvidenceRules{
			Window:  2,
			Barrier: numberedItem,
			Aliases: []AliasSpec{
				{Label: LabelImagery, Synonyms: []string{"高后果区影像图", "影像图"}},
				{Label: LabelSitePhoto, Synonyms: []string{"高后果区现场图", "高后果区现场图片", "现场图片", "现场图"}},
				{Label: LabelEntryRoute, Synonyms: []string{"入场线路图", "入场线路"}},
				{Label: LabelEscape, Synonyms: []string{"逃生路线图", "逃生路线"}},
				{Label: LabelAssembly, Synonyms: []string{"应急疏散集合点位置", "应急疏散集结点位置", "应急疏散集结点", "应急疏散集合点", "疏散集结点"}},
				{Label: LabelOilBoom, Synonyms: []string{"水体敏感型高后果区围油设施放置图", "围油设施放置图", "河流流向及围油栏预设点示意图", "围油栏预设点示意图", "围油栏预设点"}},
			},
			Sections: []SectionRule{
				{Label: LabelImagery, Start: basicInfoTitle, End: bigTitle},
			},
		},
		CrossRef: CrossRefRules{
			BasicInfoHeading:   `高后果区基本信息|基本信息表`,
			RiskHeading:        `高后果区风险评价结果表|风险评价结果表|风险评价`,
			PreventionHeading:  `人防措施|防护措施`,
			RiskTable:          `高后果区风险评价结果表|风险评价结果表|风险评价|已采取的控制措施|控制措施`,
			PreventionTable:    `人防|防护`,
			Leader:             `(专职区（段）长姓名|专职区\(段\)长姓名|专职区长姓名|专职段长姓名|专职区段长姓名|区长姓名|专职区（段）长|专职区\(段\)长|专职区长|专职段长|专职区段长)[：:\s]*([` + hanName + `·]{2,8})`,
			MeasureLeader:      measureLabel + `([` + hanName + `·]{2,4})(?:\s|[,，。;；:：]|[^\s,，。;；:：` + hanName + `·]|$)`,
			MeasureLeaderLoose: measureLabel + `([` + hanName + `·]{2,10})`,
			Location:           `(位置|位于|行政区划|地址|地理位置|高后果区起点|高后果区终点)[：:\s]*([^\s，,。\n]{3,30})`,
			CoverID:            `(编号：|封面编号：)\s*([` + hanName + `A-Za-z0-9-]+)`,
			TableID:            `高后果区编号\s*[:：]?\s*([` + hanName + `A-Za-z0-9-]+)`,
			LegacyID:           `(CPY[-_—]?\d{3,4}(?:[-_A-Z0-9]+)?)`,
			NameStopWords:      []string{"姓名", "名字"},
			NameStopChars:      "等度m)）",
			NameVerbs:          "该的是为有会要可能应需须每隔将在于对从向",
		},
		Fields: FieldRules{
			Potential: PotentialRules{
				Min:        -1.2,
				Max:        -0.85,
				BandMin:    -2,
				BandMax:    2,
				TableTitle: "高后果区管道电位测试结果",
				HeaderKeys: []string{"测试桩号", "电位"},
				ColumnKeys: []string{"电位", "V", "v"},
			},
			RiskLevels:  []string{"低", "中", "较高", "高"},
			GradeLevels: []string{"Ⅰ级", "Ⅱ级", "Ⅲ级"},
			MaxScore:    5,
		},
		Temporal: TemporalRules{MinYear: 2000, MaxYear: 2035},
		BasicInfo: []FieldSpec{
			{Name: "高后果区类型", Keywords: []string{"高后果区类型", "类型"}, Exclude: []string{"高后果区长度", "高后果区等级", "识别项"}},
			{Name: "高后果区长度(m)", Keywords: []string{"高后果区长度(m)", "高后果区长度", "长度(m)", "长度（m）", "长度"}, Exclude: []string{"高后果区类型", "高后果区等级", "识别项", "类型"}},
			{Name: "高后果区等级", Keywords: []string{"高后果区等级", "等级", "分级"}, Exclude: []string{"高后果区类型", "高后果区长度", "识别项", "类型", "长度"}},
			{Name: "识别项", Keywords: []string{"识别项", "识别依据"}, Exclude: []string{"高后果区类型", "高后果区长度", "高后果区等级", "类型", "长度", "等级"}},
		},
	}
}
