package classification

// Department is an internal routing target.
type Department struct {
	Name    string `json:"name"`
	Mailbox string `json:"mailbox"`
}

// DefaultDepartment receives mail that matches no department marker.
const DefaultDepartment = "Отдел операционного обслуживания"

// departments is declared in tie-break order.
var departments = []struct {
	Department
	phrases []WeightedPhrase
}{
	{Department{"Отдел претензий и жалоб", "complaints@psb.ru"}, []WeightedPhrase{
		{"жалоба", 4.0}, {"претензия", 4.0}, {"недовольство", 3.0}, {"некачественное обслуживание", 3.5},
		{"требуем компенсацию", 3.0}, {"требуем возврата", 3.0}, {"возврат средств", 2.5},
	}},
	{Department{"Отдел комплаенса", "compliance@psb.ru"}, []WeightedPhrase{
		{"банк россии", 3.5}, {"цб рф", 3.5}, {"центральный банк", 3.5}, {"регулятор", 3.0},
		{"надзорный орган", 3.0}, {"указание банка россии", 3.5}, {"комплаенс", 4.0},
		{"115-фз", 4.0}, {"противодействие легализации", 4.0}, {"отчетность", 1.5},
	}},
	{Department{"Отдел юридических вопросов", "legal@psb.ru"}, []WeightedPhrase{
		{"договор", 1.5}, {"нарушение условий договора", 3.0}, {"иск", 4.0}, {"суд", 3.5},
		{"юрист", 3.5}, {"правовая позиция", 3.5}, {"неправомерные действия", 3.0}, {"доверенность", 2.5},
	}},
	{Department{"Отдел ипотечного кредитования", "mortgage@psb.ru"}, []WeightedPhrase{
		{"ипотека", 4.0}, {"ипотечный кредит", 4.5}, {"ипотечного кредита", 4.5}, {"залог недвижимости", 3.5},
		{"семейная ипотека", 4.0},
	}},
	{Department{"Отдел кредитования", "credit@psb.ru"}, []WeightedPhrase{
		{"кредит", 3.0}, {"кредита", 3.0}, {"кредитный договор", 3.5}, {"заем", 3.0}, {"займ", 3.0},
		{"кредитная линия", 3.5}, {"рефинансирование", 3.5}, {"процентная ставка", 2.0},
	}},
	{Department{"Отдел депозитов и вкладов", "deposits@psb.ru"}, []WeightedPhrase{
		{"вклад", 3.5}, {"вклада", 3.5}, {"депозит", 3.5}, {"депозита", 3.5}, {"накопительный счет", 3.0},
	}},
	{Department{"Отдел карточных продуктов", "cards@psb.ru"}, []WeightedPhrase{
		{"карта", 3.0}, {"карты", 3.0}, {"банковская карта", 3.5}, {"кредитная карта", 3.5},
		{"кэшбэк", 3.0}, {"перевыпуск", 3.0}, {"блокировка карты", 3.5},
	}},
	{Department{"Отдел корпоративного обслуживания", "corporate@psb.ru"}, []WeightedPhrase{
		{"юридическое лицо", 3.0}, {"расчетный счет", 3.0}, {"расчетно-кассовое обслуживание", 3.5},
		{"корпоративный клиент", 3.5}, {"зарплатный проект", 3.5},
	}},
	{Department{"Отдел розничного обслуживания", "retail@psb.ru"}, []WeightedPhrase{
		{"физическое лицо", 3.0}, {"отделение", 2.0}, {"обслуживание в офисе", 3.0}, {"частный клиент", 3.0},
	}},
	{Department{"Отдел инвестиционных продуктов", "investments@psb.ru"}, []WeightedPhrase{
		{"инвестиции", 3.5}, {"брокерский счет", 4.0}, {"облигации", 3.5}, {"акции", 3.0},
		{"паевой фонд", 3.5}, {"иис", 3.5},
	}},
	{Department{"Отдел валютных операций", "forex@psb.ru"}, []WeightedPhrase{
		{"валюта", 3.0}, {"валютный контроль", 4.0}, {"конвертация", 3.0}, {"swift", 3.5},
		{"валютная операция", 3.5}, {"курс", 1.5},
	}},
	{Department{"Отдел безопасности", "security@psb.ru"}, []WeightedPhrase{
		{"мошенничество", 4.5}, {"мошенники", 4.5}, {"несанкционированный", 4.0}, {"списаны без", 3.5},
		{"безопасность", 2.5}, {"утечка", 3.5}, {"фишинг", 4.0},
	}},
	{Department{"Отдел по работе с проблемной задолженностью", "collections@psb.ru"}, []WeightedPhrase{
		{"просроченная задолженность", 4.5}, {"просрочка", 4.0}, {"задолженность", 3.0},
		{"реструктуризация", 3.5}, {"коллектор", 4.0},
	}},
	{Department{"Отдел партнерств и развития бизнеса", "partnerships@psb.ru"}, []WeightedPhrase{
		{"партнерство", 3.5}, {"сотрудничество", 3.0}, {"коммерческое предложение", 3.5},
		{"партнерская программа", 3.5}, {"совместный проект", 3.0}, {"b2b", 2.0}, {"b2b2c", 2.0},
	}},
	{Department{"Отдел IT и цифровых решений", "it@psb.ru"}, []WeightedPhrase{
		{"api", 3.5}, {"интеграция", 3.0}, {"мобильное приложение", 3.5}, {"интернет-банк", 3.5},
		{"личный кабинет", 3.0}, {"сбой", 3.0}, {"ошибка системы", 3.5},
	}},
	{Department{"Отдел риск-менеджмента", "risk@psb.ru"}, []WeightedPhrase{
		{"риск", 3.0}, {"риски", 3.0}, {"кредитный риск", 4.0}, {"стресс-тестирование", 4.0},
		{"лимит", 2.0}, {"оценка рисков", 3.5},
	}},
	{Department{"Отдел казначейства", "treasury@psb.ru"}, []WeightedPhrase{
		{"ликвидность", 4.0}, {"казначейство", 4.0}, {"межбанковский", 3.5}, {"репо", 3.5},
	}},
	{Department{DefaultDepartment, "operations@psb.ru"}, []WeightedPhrase{
		{"платеж", 2.5}, {"платежное поручение", 3.0}, {"перевод", 2.0}, {"справка", 2.0},
		{"выписка", 2.0}, {"реквизиты", 2.5},
	}},
}

// Departments lists every routing target in declaration order.
func Departments() []Department {
	out := make([]Department, len(departments))
	for i, d := range departments {
		out[i] = d.Department
	}
	return out
}

// DepartmentMailbox returns the routing mailbox for a department name.
func DepartmentMailbox(name string) (string, bool) {
	for _, d := range departments {
		if d.Name == name {
			return d.Mailbox, true
		}
	}
	return "", false
}

// DepartmentTaxonomy returns the department keyword taxonomy.
func DepartmentTaxonomy() Taxonomy[string] {
	t := Taxonomy[string]{
		Labels:  make([]string, 0, len(departments)),
		Phrases: make(map[string][]WeightedPhrase, len(departments)),
	}
	for _, d := range departments {
		t.Labels = append(t.Labels, d.Name)
		t.Phrases[d.Name] = d.phrases
	}
	return t
}

// DepartmentDetector picks the department an email should be routed to.
type DepartmentDetector struct {
	scorer *KeywordScorer[string]
}

func NewDepartmentDetector() *DepartmentDetector {
	return &DepartmentDetector{scorer: NewKeywordScorer(DepartmentTaxonomy(), DefaultDepartment)}
}

// Detect returns the highest-scoring department for subject and body.
func (d *DepartmentDetector) Detect(subject, body string) string {
	name, _ := d.scorer.Classify(subject + " " + body)
	return name
}
