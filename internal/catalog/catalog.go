// Package catalog holds the vaccination reference data queried by the
// quick-guidance flow. The data is configuration, not logic: it mirrors the
// national immunization calendar per age group.
package catalog

import "github.com/petsaude/iasys/pkg/ports"

// Known age categories. The LLM category classifier is prompted to answer
// with exactly one of these.
const (
	CategoryChild    = "crianca"
	CategoryTeen     = "adolescente"
	CategoryAdult    = "adulto"
	CategoryElderly  = "idoso"
	CategoryPregnant = "gestante"
)

// Catalog implements ports.VaccinationCatalog over an in-memory table.
type Catalog struct {
	byCategory map[string]ports.VaccinationGuidance
	order      []string
}

// New returns the built-in vaccination catalog.
func New() *Catalog {
	c := &Catalog{byCategory: make(map[string]ports.VaccinationGuidance)}
	for _, g := range entries {
		c.byCategory[g.Category] = g
		c.order = append(c.order, g.Category)
	}
	return c
}

// Lookup returns the guidance for a category.
func (c *Catalog) Lookup(category string) (ports.VaccinationGuidance, bool) {
	g, ok := c.byCategory[category]
	return g, ok
}

// Categories lists the known categories in calendar order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

var entries = []ports.VaccinationGuidance{
	{
		Category: CategoryChild,
		Message: "Para vacinar, basta levar a criança a um posto ou Unidade Básica de Saúde (UBS) com o cartão da criança. " +
			"O ideal é que toda dose seja administrada na idade recomendada mas, se perdeu o prazo vá à unidade de saúde e atualize as vacinas.",
		Vaccines: []ports.Vaccine{
			{Name: "BCG (Bacilo Calmette-Guerin)", Description: "Previne as formas graves de tuberculose, principalmente miliar e meníngea", Dosage: 1},
			{Name: "Hepatite B", Description: "Previne a hepatite do tipo B", Dosage: 1},
			{Name: "Pentavalente (DTP/HB/Hib)", Description: "Previne difteria, tétano, coqueluche, hepatite B e meningite e infecções por HiB", Dosage: 3},
			{Name: "VIP (Poliomielite inativada)", Description: "Previne poliomielite ou paralisia infantil", Dosage: 3},
		},
	},
	{
		Category: CategoryTeen,
		Message: "Adolescentes devem manter a caderneta em dia. Leve um documento e, se tiver, a caderneta de vacinação " +
			"à UBS mais próxima para atualizar as doses.",
		Vaccines: []ports.Vaccine{
			{Name: "HPV quadrivalente", Description: "Previne o papilomavírus humano, associado a cânceres de colo de útero e outros", Dosage: 2},
			{Name: "Meningocócica ACWY", Description: "Previne meningites e doenças meningocócicas dos sorogrupos A, C, W e Y", Dosage: 1},
			{Name: "dT (dupla adulto)", Description: "Reforço contra difteria e tétano a cada 10 anos", Dosage: 1},
		},
	},
	{
		Category: CategoryAdult,
		Message: "Adultos também precisam se vacinar. Compareça à UBS com um documento com foto; " +
			"não é necessário agendamento para as vacinas de rotina.",
		Vaccines: []ports.Vaccine{
			{Name: "Hepatite B", Description: "Três doses para quem não completou o esquema na infância", Dosage: 3},
			{Name: "Tríplice viral (SCR)", Description: "Previne sarampo, caxumba e rubéola", Dosage: 2},
			{Name: "dT (dupla adulto)", Description: "Reforço contra difteria e tétano a cada 10 anos", Dosage: 1},
			{Name: "Febre amarela", Description: "Dose única para residentes e viajantes de áreas com recomendação", Dosage: 1},
		},
	},
	{
		Category: CategoryElderly,
		Message: "Pessoas com 60 anos ou mais têm vacinas específicas no calendário. " +
			"Procure a UBS com documento e caderneta de vacinação.",
		Vaccines: []ports.Vaccine{
			{Name: "Influenza", Description: "Dose anual contra a gripe", Dosage: 1},
			{Name: "Pneumocócica 23-valente", Description: "Previne pneumonias e outras doenças pneumocócicas em grupos prioritários", Dosage: 1},
			{Name: "dT (dupla adulto)", Description: "Reforço contra difteria e tétano a cada 10 anos", Dosage: 1},
		},
	},
	{
		Category: CategoryPregnant,
		Message: "Gestantes têm calendário próprio para proteger mãe e bebê. " +
			"Leve o cartão de pré-natal e a caderneta de vacinação à UBS.",
		Vaccines: []ports.Vaccine{
			{Name: "dTpa (tríplice bacteriana acelular)", Description: "A partir da 20ª semana de gestação, protege o bebê contra coqueluche", Dosage: 1},
			{Name: "Hepatite B", Description: "Três doses para gestantes não vacinadas", Dosage: 3},
			{Name: "Influenza", Description: "Dose anual, em qualquer período gestacional", Dosage: 1},
		},
	},
}
