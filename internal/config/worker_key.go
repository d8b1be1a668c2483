package config

type WorkerKeyStruct struct {
	PersistJudgmentsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistJudgmentsQueue: "persist_judgments_queue",
}
