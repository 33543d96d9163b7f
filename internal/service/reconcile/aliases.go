package reconcile

// Field aliases of the ERP monthly movement dataset. The dataset mixes
// absence rows and overtime rows and each kind has grown several spellings
// for the same logical field. The first alias with a non-null value wins.
var (
	employeeCodeAliases = []string{"cod_funcionario", "cod_func_he", "funcionario", "employee_code"}
	dateAliases         = []string{"data_falta", "data_he", "data", "date"}

	absenceTypeAliases     = []string{"cod_falta", "tipo_falta", "absence_type"}
	absenceDurationAliases = []string{"duracao", "horas_falta", "qtd", "duration"}
	hourBasedAliases       = []string{"em_horas", "is_horas", "is_hour_based"}
	mealSubsidyAliases     = []string{"desconta_sa", "desconta_subsidio", "deducts_meal_subsidy"}
	absenceIDAliases       = []string{"id_falta", "id"}

	overtimeTypeAliases     = []string{"cod_he", "tipo_he", "overtime_type"}
	overtimeDurationAliases = []string{"horas_he", "duracao", "qtd_horas", "duration_hours"}
	overtimeIDAliases       = []string{"id_he", "id", "external_id"}
)

