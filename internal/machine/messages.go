package machine

// User-facing wording. These strings are configuration data for the graph;
// the engine only appends them to the response buffer.
const (
	msgGreeting = "Olá, eu sou o IASYS, assistente virtual do SUS!"

	msgAskName        = "Para começar, qual é o seu nome completo?"
	msgConfirmNameFmt = "Você disse que seu nome é %s, correto? (sim/não)"

	msgAskHasSocialName = "Você possui nome social? (sim/não)"
	msgAskSocialName    = "Qual é o seu nome social?"
	msgConfirmSocialFmt = "Seu nome social é %s, correto? (sim/não)"

	msgAskBirthDate        = "Qual é a sua data de nascimento? (DD/MM/AAAA)"
	msgInvalidBirthDate    = "Essa data não parece válida. Use o formato DD/MM/AAAA, com uma data no passado."
	msgConfirmBirthDateFmt = "Você nasceu em %s, correto? (sim/não)"

	msgAskCPF        = "Agora preciso do seu CPF (apenas números ou no formato 000.000.000-00)."
	msgInvalidCPF    = "Esse CPF não parece válido. Confira os dígitos e envie novamente."
	msgConfirmCPFFmt = "Seu CPF é %s, correto? (sim/não)"

	msgAskSex     = "Qual é o seu sexo?\n1) Feminino\n2) Masculino\n3) Outro\n4) Prefiro não informar"
	msgSexInvalid = "Opção inválida. Responda com 1, 2, 3 ou 4."

	msgMenu = "Você gostaria de:\n1) Informar um problema de saúde\n2) Agendar ou verificar uma consulta/procedimento\n3) Orientações rápidas"

	msgAskSymptom     = "Entendi!\nPara te ajudar melhor, preciso saber:\nQual o seu principal sintoma?\n(Febre, dor, tosse, falta de ar, outro...)"
	msgMildSymptoms   = "Com base no que você disse, você pode tomar algumas precauções ainda em casa.\nRepouse e se hidrate.\nSe os sintomas persistirem ou piorarem, busque a UBS mais próxima de você."
	msgSevereSymptoms = "Seus sintomas indicam alerta!\nProcure o hospital mais perto de você para ser atendido prontamente!"

	msgScheduleMenu       = "Certo! Você quer:\n1) Agendar uma consulta ou procedimento\n2) Verificar um agendamento existente"
	msgAskAppointmentType = "O que você deseja agendar? (consulta, exame, procedimento...)"
	msgAskAppointmentDate = "Para quando você gostaria? Pode escrever livremente, por exemplo: \"semana que vem de manhã\" ou \"dia 15/10\"."
	msgDateOptionsHeader  = "Encontrei estas opções de horário:"
	msgDateOptionsFooter  = "Responda com o número da opção desejada."
	msgDateOptionInvalid  = "Opção inválida. Responda com o número de uma das opções listadas."
	msgConfirmApptFmt     = "Confirmando: %s para %s, certo? (sim/não)"
	msgApptScheduled      = "Prontinho! Seu agendamento foi registrado. Você receberá um lembrete próximo à data."
	msgApptFoundFmt       = "Encontrei um agendamento para %s. Compareça com 15 minutos de antecedência e leve um documento com foto."
	msgApptNotFound       = "Não encontrei nenhum agendamento para você. Se quiser, posso agendar um novo."

	msgQuickGuidanceMenu = "Sobre o que você precisa de orientação?\n1) Vacinação\n2) Medidas de higiene\n3) Situações de urgência"

	msgVaccinationWho    = "A orientação de vacinação é para você (1) ou para outra pessoa (2)?"
	msgAskVaccinatedWho  = "Me conte sobre quem será vacinado: qual a idade? É gestante?"
	msgVaccinesHeaderFmt = "Vacinas recomendadas (%s):"

	msgAskHygiene      = "O que você gostaria de saber sobre higiene e prevenção? (lavagem das mãos, preparo de alimentos, cuidados com feridas...)"
	msgAskUrgency      = "Me descreva a situação de urgência para eu poder orientar."
	msgUrgencyCritical = "Essa situação é grave!\nLigue 192 (SAMU) imediatamente ou vá ao pronto-socorro mais próximo."
	msgUrgencyModerate = "Pelo que você descreveu, procure uma UPA ou a UBS mais próxima para avaliação.\nSe o quadro piorar, ligue 192 (SAMU)."

	msgStillNeedHelp = "Há mais algo em que eu possa ajudar? (sim/não)"
	msgError         = "Desculpe, houve um erro. Tente novamente."
	msgGoodbye       = "Certo! Obrigada por usar o assistente virtual do SUS!"
)

// Sex options keyed by the numeric menu answer.
var sexOptions = map[string]string{
	"1": "feminino",
	"2": "masculino",
	"3": "outro",
	"4": "prefiro não informar",
}
