package contracts

// CreditScoreRegistryABI describes the two functions the service uses on the
// deployed registry: the upsert write and the detail read. The final
// creditScore output is computed on-chain and never supplied by callers.
const CreditScoreRegistryABI = `[
  {
    "inputs": [
      {"internalType": "string", "name": "_nid", "type": "string"},
      {"internalType": "string", "name": "_name", "type": "string"},
      {"internalType": "uint256", "name": "_accountBalanceScore", "type": "uint256"},
      {"internalType": "uint256", "name": "_paymentHistoryScore", "type": "uint256"},
      {"internalType": "uint256", "name": "_totalTransactionsScore", "type": "uint256"},
      {"internalType": "uint256", "name": "_totalRemainingLoanScore", "type": "uint256"},
      {"internalType": "uint256", "name": "_creditAgeScore", "type": "uint256"},
      {"internalType": "uint256", "name": "_professionalRiskFactorScore", "type": "uint256"}
    ],
    "name": "addOrUpdateBorrower",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "string", "name": "_nid", "type": "string"}
    ],
    "name": "getBorrowerDetails",
    "outputs": [
      {"internalType": "string", "name": "nid", "type": "string"},
      {"internalType": "string", "name": "name", "type": "string"},
      {"internalType": "uint256", "name": "accountBalanceScore", "type": "uint256"},
      {"internalType": "uint256", "name": "paymentHistoryScore", "type": "uint256"},
      {"internalType": "uint256", "name": "totalTransactionsScore", "type": "uint256"},
      {"internalType": "uint256", "name": "totalRemainingLoanScore", "type": "uint256"},
      {"internalType": "uint256", "name": "creditAgeScore", "type": "uint256"},
      {"internalType": "uint256", "name": "professionalRiskFactorScore", "type": "uint256"},
      {"internalType": "uint256", "name": "finalCreditScore", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

// Function names resolved against the ABI at startup.
const (
	MethodAddOrUpdateBorrower = "addOrUpdateBorrower"
	MethodGetBorrowerDetails  = "getBorrowerDetails"
)
